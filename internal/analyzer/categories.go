// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Category is one row of the classification table. Templates are
// fmt-style patterns with a single %s for the original query.
type Category struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Templates []string `yaml:"templates"`
}

// defaultTemplates apply to the general category and to loaded categories
// that omit templates.
var defaultTemplates = []string{
	"%s overview",
	"%s recent developments",
}

// builtinCategories is the compiled-in classification table, scanned in
// order with first match winning. Extend via AnalyzerConfig.CategoriesFile
// rather than editing code.
var builtinCategories = []Category{
	{
		Name: "cryptography",
		Keywords: []string{
			"cryptography", "cryptographic", "encryption", "cipher",
			"lattice-based", "post-quantum", "zero-knowledge", "signature scheme",
			"key exchange", "homomorphic",
		},
		Templates: []string{
			"%s security analysis",
			"%s constructions and schemes",
		},
	},
	{
		Name: "machine_learning",
		Keywords: []string{
			"machine learning", "deep learning", "neural network", "transformer",
			"language model", "reinforcement learning", "embedding", "training",
			"fine-tuning", "inference",
		},
		Templates: []string{
			"%s benchmark results",
			"%s model architectures",
		},
	},
	{
		Name: "systems",
		Keywords: []string{
			"distributed system", "database", "operating system", "concurrency",
			"consensus", "replication", "file system", "networking", "scheduler",
			"cache",
		},
		Templates: []string{
			"%s design tradeoffs",
			"%s performance evaluation",
		},
	},
	{
		Name: "biology",
		Keywords: []string{
			"protein", "genome", "gene", "cell", "clinical", "drug",
			"disease", "vaccine", "crispr",
		},
		Templates: []string{
			"%s clinical studies",
			"%s mechanisms",
		},
	},
	{
		Name: "physics",
		Keywords: []string{
			"quantum", "particle", "relativity", "cosmology", "photon",
			"superconduct", "entanglement",
		},
		Templates: []string{
			"%s experimental results",
			"%s theoretical framework",
		},
	},
}

// LoadCategories reads a category table from a YAML file. Entries without
// keywords are rejected; entries without templates get the defaults.
func LoadCategories(path string) ([]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var categories []Category
	if err := yaml.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%s: no categories defined", path)
	}

	for i := range categories {
		if categories[i].Name == "" {
			return nil, fmt.Errorf("%s: category %d has no name", path, i)
		}
		if len(categories[i].Keywords) == 0 {
			return nil, fmt.Errorf("%s: category %q has no keywords", path, categories[i].Name)
		}
		if len(categories[i].Templates) == 0 {
			categories[i].Templates = defaultTemplates
		}
	}
	return categories, nil
}
