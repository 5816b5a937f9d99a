package vocab

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

const configFileName = "config.json"

// configFile is the on-disk shape of config.json.
type configFile struct {
	Name       string         `json:"name"`
	Namespaces []namespace    `json:"namespaces"`
	Variables  []variableFile `json:"standardized_variables"`
}

type namespace struct {
	Prefix string `json:"prefix"`
	URL    string `json:"url"`
}

type variableFile struct {
	ID                     string       `json:"id"`
	Name                   string       `json:"name"`
	DataType               *string      `json:"data_type"`
	TermsFile              string       `json:"terms_file"`
	Terms                  []termEntry  `json:"terms"`
	Formats                []TermFormat `json:"formats"`
	IsMultiColumnMeasure   bool         `json:"is_multi_column_measure"`
	CanHaveMultipleColumns bool         `json:"can_have_multiple_columns"`
	Identifies             string       `json:"identifies"`
	Required               bool         `json:"required"`
	PinnedTerms            []string     `json:"pinned_terms"`
}

// termsFile is the on-disk shape of a term file.
type termsFile struct {
	NamespacePrefix string      `json:"namespace_prefix"`
	VocabularyName  string      `json:"vocabulary_name"`
	Terms           []termEntry `json:"terms"`
}

type termEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// parseConfigFile decodes config.json.
func parseConfigFile(data []byte) (*configFile, error) {
	var cf configFile

	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, configFileName, err)
	}

	if len(cf.Variables) == 0 {
		return nil, fmt.Errorf("%w: %s declares no standardized variables", ErrInvalidConfig, configFileName)
	}

	return &cf, nil
}

// termFiles lists the distinct term files config.json references.
func (cf *configFile) termFiles() []string {
	seen := map[string]struct{}{}

	var files []string

	for _, v := range cf.Variables {
		if v.TermsFile == "" {
			continue
		}

		if _, ok := seen[v.TermsFile]; ok {
			continue
		}

		seen[v.TermsFile] = struct{}{}
		files = append(files, v.TermsFile)
	}

	return files
}

// buildConfig assembles a Config from a parsed config.json and the raw
// contents of its term files.
func buildConfig(name string, cf *configFile, files map[string][]byte) (*Config, error) {
	if cf.Name != "" {
		name = cf.Name
	}

	variables := make([]StandardizedVariable, 0, len(cf.Variables))
	terms := make(map[string][]Term)
	formats := make(map[string][]TermFormat)

	for _, vf := range cf.Variables {
		dataType := DataTypeNone

		if vf.DataType != nil && !strings.EqualFold(*vf.DataType, "Collection") {
			dt, err := ParseDataType(*vf.DataType)
			if err != nil {
				return nil, fmt.Errorf("%w: variable %q: %v", ErrInvalidConfig, vf.ID, err)
			}

			dataType = dt
		}

		variables = append(variables, StandardizedVariable{
			Identifier:             vf.ID,
			Label:                  vf.Name,
			IsMultiColumnMeasure:   vf.IsMultiColumnMeasure,
			CanHaveMultipleColumns: vf.CanHaveMultipleColumns,
			DataType:               dataType,
			Identifies:             vf.Identifies,
			Required:               vf.Required,
			PinnedTerms:            vf.PinnedTerms,
		})

		var list []Term

		for _, te := range vf.Terms {
			list = append(list, Term{Identifier: te.ID, Label: te.Name})
		}

		if vf.TermsFile != "" {
			data, ok := files[vf.TermsFile]
			if !ok {
				return nil, fmt.Errorf("%w: variable %q: missing terms file %s", ErrInvalidConfig, vf.ID, vf.TermsFile)
			}

			fromFile, err := parseTermsFile(vf.TermsFile, data)
			if err != nil {
				return nil, err
			}

			list = append(list, fromFile...)
		}

		if len(list) > 0 {
			terms[vf.ID] = list
		}

		if len(vf.Formats) > 0 {
			formats[vf.ID] = vf.Formats
		}
	}

	return NewConfig(name, variables, terms, formats)
}

// parseTermsFile decodes a term file. Both a single object and a list of
// objects (one per source vocabulary) are accepted.
func parseTermsFile(name string, data []byte) ([]Term, error) {
	var groups []termsFile

	if err := json.Unmarshal(data, &groups); err != nil {
		var single termsFile
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}

		groups = []termsFile{single}
	}

	var out []Term

	for _, g := range groups {
		for _, te := range g.Terms {
			out = append(out, Term{
				Identifier: qualify(g.NamespacePrefix, te.ID),
				Label:      te.Name,
			})
		}
	}

	return out, nil
}

// qualify prefixes a bare term id with its namespace.
func qualify(prefix, id string) string {
	if prefix == "" || strings.Contains(id, ":") {
		return id
	}

	return prefix + ":" + id
}

// configPath joins a configuration directory and a file name with forward slashes.
func configPath(name, file string) string {
	return path.Join(name, file)
}
