// Package artifact generates the container build specification and cluster
// manifest set for a classified source tree.
package artifact

import (
	"os"
	"path/filepath"

	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/errors"
)

// DockerfileName is the build specification filename probed for and, when
// synthesis runs, written into the tree.
const DockerfileName = "Dockerfile"

// Kind-specific build templates. The Node templates differ only in the
// install step: a lockfile selects the reproducible `npm ci` path.
const (
	dockerfileNode = `FROM node:18-alpine
WORKDIR /app
COPY package*.json ./
RUN npm install
COPY . .
EXPOSE 3000
CMD ["npm", "start"]
`

	dockerfileNodeLocked = `FROM node:18-alpine
WORKDIR /app
COPY package*.json ./
RUN npm ci
COPY . .
EXPOSE 3000
CMD ["npm", "start"]
`

	dockerfileJVM = `FROM eclipse-temurin:17-jre
WORKDIR /app
COPY target/*.jar app.jar
EXPOSE 8080
ENTRYPOINT ["java", "-jar", "app.jar"]
`

	dockerfilePython = `FROM python:3.11-slim
WORKDIR /app
COPY requirements.txt .
RUN pip install --no-cache-dir -r requirements.txt
COPY . .
EXPOSE 8000
CMD ["python", "app.py"]
`

	dockerfileStatic = `FROM nginx:alpine
COPY . /usr/share/nginx/html
EXPOSE 80
`
)

// BuildSpec is the container build description consumed by the image
// publisher. It is either discovered in the source tree and used verbatim,
// or synthesized from the project kind.
type BuildSpec struct {
	// Kind the spec was generated for.
	Kind detect.Kind
	// Content is the Dockerfile text.
	Content string
	// Synthesized is false when the tree supplied its own Dockerfile.
	Synthesized bool
}

// GenerateBuildSpec returns the build specification for the tree. A
// Dockerfile present in the tree always wins: tree authors override
// detection and no template is consulted.
func GenerateBuildSpec(treeDir string, kind detect.Kind) (*BuildSpec, error) {
	existing := filepath.Join(treeDir, DockerfileName)
	if data, err := os.ReadFile(existing); err == nil {
		return &BuildSpec{Kind: kind, Content: string(data), Synthesized: false}, nil
	}

	var content string
	switch kind {
	case detect.KindNode:
		if hasLockfile(treeDir) {
			content = dockerfileNodeLocked
		} else {
			content = dockerfileNode
		}
	case detect.KindJVM:
		content = dockerfileJVM
	case detect.KindPython:
		content = dockerfilePython
	default:
		content = dockerfileStatic
	}

	return &BuildSpec{Kind: kind, Content: content, Synthesized: true}, nil
}

// Materialize ensures the Dockerfile exists in the tree so the build
// context is self-contained. Specs discovered in the tree are left alone.
func (s *BuildSpec) Materialize(treeDir string) error {
	if !s.Synthesized {
		return nil
	}
	path := filepath.Join(treeDir, DockerfileName)
	if err := os.WriteFile(path, []byte(s.Content), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to write build spec", err)
	}
	return nil
}

func hasLockfile(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "package-lock.json"))
	return err == nil
}
