package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// ErrTemplateNotFound is returned by Loader.Load for unknown template ids.
var ErrTemplateNotFound = errors.New("summary: template not found")

// Section formats understood by the prompt builder.
const (
	FormatString    = "string"
	FormatList      = "list"
	FormatParagraph = "paragraph"
)

// TemplateSection is one section of a summary template.
type TemplateSection struct {
	// Title is the Markdown heading of the section.
	Title string `json:"title"`

	// Instruction tells the model what to put in the section.
	Instruction string `json:"instruction"`

	// Format is one of FormatString, FormatList, FormatParagraph.
	Format string `json:"format"`

	// ItemFormat describes individual items for list sections.
	ItemFormat string `json:"itemFormat,omitempty"`
}

// Template is a static summary template definition, loaded from JSON and
// read-only input to prompt construction.
type Template struct {
	Name     string            `json:"name"`
	Sections []TemplateSection `json:"sections"`
}

// templateFiles maps template ids to their file names inside the template
// directory. Ids outside this table are unknown regardless of what files
// exist on disk.
var templateFiles = map[string]string{
	"standard":      "standard.json",
	"daily_standup": "daily_standup.json",
	"project_sync":  "project_sync.json",
	"client_sales":  "client_sales.json",
}

// Loader loads template definitions from a directory of JSON files.
// Safe for concurrent use; files are re-read on every Load so edits take
// effect without a restart.
type Loader struct {
	dir string
}

// NewLoader creates a Loader reading from dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load returns the template with the given id. Unknown ids and missing
// files both report ErrTemplateNotFound; malformed files report the parse
// error.
func (l *Loader) Load(id string) (*Template, error) {
	filename, ok := templateFiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}

	data, err := os.ReadFile(filepath.Join(l.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
		}
		return nil, fmt.Errorf("summary: read template %q: %w", id, err)
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("summary: parse template %q: %w", id, err)
	}
	if tpl.Name == "" || len(tpl.Sections) == 0 {
		return nil, fmt.Errorf("summary: template %q has no name or sections", id)
	}
	return &tpl, nil
}

// KnownTemplateIDs returns the ids the loader recognises, sorted for
// stable API discovery responses.
func KnownTemplateIDs() []string {
	ids := make([]string, 0, len(templateFiles))
	for id := range templateFiles {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
