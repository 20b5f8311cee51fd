package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type exportFrontMatter struct {
	Instrument string    `yaml:"instrument"`
	Exported   time.Time `yaml:"exported"`
	Levels     int       `yaml:"levels"`
	Analyses   int       `yaml:"analyses"`
}

// ExportMarkdown writes one markdown file per requested instrument into dir,
// with a YAML front matter header followed by the levels and recent analyses.
// Returns the paths written.
func (s *Store) ExportMarkdown(dir string, instruments []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var paths []string
	for _, instrument := range instruments {
		levels, err := s.KeyLevels(instrument)
		if err != nil {
			return nil, err
		}
		analyses, err := s.RecentAnalyses(instrument, 10)
		if err != nil {
			return nil, err
		}

		front, err := yaml.Marshal(exportFrontMatter{
			Instrument: instrument,
			Exported:   time.Now().UTC(),
			Levels:     len(levels),
			Analyses:   len(analyses),
		})
		if err != nil {
			return nil, err
		}

		var b strings.Builder
		b.WriteString("---\n")
		b.Write(front)
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "# %s\n\n## Ключевые уровни\n\n", instrument)
		if len(levels) == 0 {
			b.WriteString("Нет сохраненных уровней.\n")
		}
		for _, lvl := range levels {
			fmt.Fprintf(&b, "- **%g** — %s (%s, источник %s)\n", lvl.Level, lvl.Type, lvl.Status, lvl.SourceID)
		}
		b.WriteString("\n## Последние анализы\n\n")
		if len(analyses) == 0 {
			b.WriteString("Нет сохраненных анализов.\n")
		}
		for _, a := range analyses {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", a.CreatedAt.Format("2006-01-02 15:04"), a.Summary)
		}

		path := filepath.Join(dir, strings.ToLower(instrument)+".md")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}
