package tool

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
)

/*读取文件各行，跳过空行和#注释*/
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open line list")
	}
	//noinspection GoUnhandledErrorResult
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, errors.Wrapf(s.Err(), "read %s", path)
}
