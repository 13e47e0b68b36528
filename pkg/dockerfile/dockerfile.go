// Package dockerfile extracts base image references from Dockerfiles so
// they can join the scan work list.
package dockerfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

// BaseImages returns the external base images referenced by FROM
// instructions in the Dockerfile at path, in file order with duplicates
// dropped. Stage back-references, scratch, and references built from
// build arguments are not pullable and are left out.
func BaseImages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dockerfile: %w", err)
	}
	defer f.Close()

	result, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if result.AST == nil {
		return nil, nil
	}

	var (
		images []string
		stages = make(map[string]bool)
		seen   = make(map[string]bool)
	)
	for _, node := range result.AST.Children {
		if !strings.EqualFold(node.Value, "from") {
			continue
		}
		args := flattenArgs(node)
		if len(args) == 0 {
			continue
		}
		image := args[0]

		// "FROM x AS name" introduces a stage later FROMs may reference.
		if len(args) >= 3 && strings.EqualFold(args[1], "as") {
			stages[strings.ToLower(args[2])] = true
		}

		if strings.EqualFold(image, "scratch") || strings.Contains(image, "$") {
			continue
		}
		if stages[strings.ToLower(image)] || seen[image] {
			continue
		}
		seen[image] = true
		images = append(images, image)
	}

	return images, nil
}

// flattenArgs collects the argument chain of an instruction node. Flags
// such as --platform live on the node itself, not in the chain.
func flattenArgs(node *parser.Node) []string {
	var args []string
	for n := node.Next; n != nil; n = n.Next {
		args = append(args, n.Value)
	}
	return args
}
