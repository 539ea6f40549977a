package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ardnew/folio/pkg"
)

// ErrEnv is returned when environment configuration cannot be read.
var ErrEnv = pkg.NewError("read environment")

// loadEnv merges the dotenv files in order, later files overriding earlier
// ones, and then the process environment over all of them. The first file is
// the optional default in the configuration directory; it may be missing.
func loadEnv(files ...string) (map[string]string, error) {
	vars := make(map[string]string)

	for i, file := range files {
		m, err := loadEnvFile(file)
		if err != nil {
			if i == 0 && errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, ErrEnv.Wrap(err).With(slog.String("file", file))
		}

		maps.Copy(vars, m)
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	return vars, nil
}

func loadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return godotenv.Parse(f)
}

// scanEnvFiles returns the files named by --env-file or -e in args, which
// must be known before kong parses them.
func scanEnvFiles(args []string) []string {
	var files []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		name, value, assigned := strings.Cut(arg, "=")

		switch {
		case name == "--env-file" || name == "-e":
			if !assigned {
				if i+1 >= len(args) {
					continue
				}

				i++
				value = args[i]
			}

		case strings.HasPrefix(arg, "-e") && !strings.HasPrefix(arg, "--"):
			value = arg[len("-e"):]

		default:
			continue
		}

		if value != "" {
			files = append(files, value)
		}
	}

	return files
}
