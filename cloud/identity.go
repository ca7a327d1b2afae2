package cloud

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/scratchvm/vm"
)

// UsernameFile holds the generated cloud username between runs.
const UsernameFile = "cloud-username.txt"

// ProjectIDPrefix prefixes the hash that identifies a project to the server.
const ProjectIDPrefix = "Scratch-3DS/hash-"

// Username returns the username stored in dir, generating and saving a
// random "playerNNNNNNN" name on first use.
func Username(dir string) (string, error) {
	path := filepath.Join(dir, UsernameFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if fields := strings.Fields(string(data)); len(fields) > 0 {
			return fields[0], nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	name := fmt.Sprintf("player%07d", rand.IntN(10000000))
	if err := os.WriteFile(path, []byte(name), 0644); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	log.Infof("generated cloud username %s", name)
	return name, nil
}

// ProjectID derives the server-side project id from the raw project.json,
// so every copy of the same project shares its cloud variables.
func ProjectID(source []byte) string {
	h := fnv.New64a()
	h.Write(source)
	return fmt.Sprintf("%s%016x", ProjectIDPrefix, h.Sum64())
}

// HasCloudVariables reports whether any stage variable is a cloud variable.
func HasCloudVariables(p *vm.Project) bool {
	stage := p.Stage()
	if stage == nil {
		return false
	}
	for _, v := range stage.Variables {
		if v.Cloud {
			return true
		}
	}
	return false
}
