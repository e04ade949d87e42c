package argv

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

const includeSuffix = ".conf"

// ParseFile reads a line-oriented config file and applies every line as if it had been
// given as "--"+line on the command line. A trailing backslash joins a line with the
// next one; a '#' at the start of a line or after whitespace starts a comment.
// With only set, assignments to other settings are skipped.
//
// It reports false without an error when the file cannot be opened. A line that fails
// to apply aborts the read and its error is returned.
func (s *Store) ParseFile(path, only string, lax bool) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	if fi, err := f.Stat(); err != nil || fi.IsDir() {
		return false, nil
	}

	reader := bufio.NewReader(f)

	var line string
	for {
		raw, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return true, wrapf(readErr, "Unable to read '%s'", path)
		}
		if raw == "" && readErr != nil {
			break
		}

		physical := strings.TrimRight(raw, " \t\r\n\v\f")
		if strings.HasSuffix(physical, `\`) {
			line += strings.TrimSuffix(physical, `\`)
		} else {
			line += physical
			if err := s.parseOne("--"+cleanLine(line), only, lax); err != nil {
				return true, err
			}
			line = ""
		}
		if readErr != nil {
			break
		}
	}
	if line != "" {
		if err := s.parseOne("--"+cleanLine(line), only, lax); err != nil {
			return true, err
		}
	}
	return true, nil
}

// PreParseFile seeds name with def and then reads only that setting from path.
func (s *Store) PreParseFile(path, name, def string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	s.values[name] = def
	return s.ParseFile(path, name, false)
}

// File parses path and, when include-dir is set, every *.conf file in that directory in
// case-insensitive name order. Included files do not trigger further directory scans.
// It reports false without an error when path itself cannot be opened; an included file
// that cannot be opened or parsed is an error.
func (s *Store) File(path string, lax bool) (bool, error) {
	return s.file(path, lax, false)
}

func (s *Store) file(path string, lax, included bool) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if !s.IsSet(IncludeDir) {
		s.SetHelp(IncludeDir, "Directory to include configuration files from")
		s.SetDefault(IncludeDir, "")
	}

	ok, err := s.ParseFile(path, "", lax)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Warn("Unable to open file", zap.String("name", path))
		return false, nil
	}

	if included || s.values[IncludeDir] == "" {
		return true, nil
	}

	extra, err := s.gatherIncludes(s.values[IncludeDir], includeSuffix)
	if err != nil {
		return false, err
	}
	for _, name := range extra {
		ok, err := s.file(name, lax, true)
		if ok && err == nil {
			continue
		}
		s.logger.Error("Unable to parse config file", zap.String("name", name), zap.Error(err))
		return false, wrapf(err, "%s could not be parsed", name)
	}
	return true, nil
}

func (s *Store) gatherIncludes(dir, suffix string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Error("Directory is not accessible", zap.String("name", dir), zap.Error(err))
		return nil, wrapf(err, "%s is not accessible", dir)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		full := filepath.Join(dir, name)
		fi, err := os.Stat(full)
		if err != nil || !fi.Mode().IsRegular() {
			s.logger.Error("Unable to open non-regular file", zap.String("name", full))
			return nil, errorf("%s is not a regular file", full)
		}
		files = append(files, full)
	}
	slices.SortStableFunc(files, compareFoldASCII)
	return files, nil
}

// cleanLine strips a trailing comment and surrounding whitespace.
func cleanLine(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' && (i == 0 || isSpace(line[i-1])) {
			line = line[:i]
			break
		}
	}
	return strings.Trim(line, " \t\r\n\v\f")
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// compareFoldASCII orders strings byte-wise after folding ASCII letters to lower case,
// independent of the process locale.
func compareFoldASCII(a, b string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		ca, cb := lowerASCII(a[i]), lowerASCII(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
