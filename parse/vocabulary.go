package parse

// Resolver maps a tag name to a descriptor.
type Resolver interface {
	Resolve(name string) (Descriptor, bool)
}

// DescriptorSet resolves names against a fixed list of descriptors.
type DescriptorSet []Descriptor

func (s DescriptorSet) Resolve(name string) (Descriptor, bool) {
	for _, d := range s {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Vocabulary resolves tag names to descriptors. The reserved tags are
// always tried first, then registered resolvers in registration order.
// Names nothing recognizes resolve to Unknown.
//
// A nil *Vocabulary knows only the reserved tags. Register is not safe
// for concurrent use with Resolve; finish registering before parsing.
type Vocabulary struct {
	resolvers []Resolver
}

func NewVocabulary(r ...Resolver) *Vocabulary {
	return &Vocabulary{resolvers: append([]Resolver(nil), r...)}
}

func (v *Vocabulary) Register(r Resolver) {
	v.resolvers = append(v.resolvers, r)
}

func (v *Vocabulary) Resolve(name string) Descriptor {
	if d, ok := builtins[name]; ok {
		return d
	}
	if v != nil {
		for _, r := range v.resolvers {
			if d, ok := r.Resolve(name); ok {
				return d
			}
		}
	}
	return Unknown
}
