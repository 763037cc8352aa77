package cli

import (
	"bufio"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	builtindocs "github.com/aidanlsb/shopctl/docs"
	"github.com/aidanlsb/shopctl/internal/suggest"
	"github.com/aidanlsb/shopctl/internal/ui"
)

const docsRoot = "guide"

var docsMarkdownRender = ui.RenderMarkdown

type docsTopic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	path  string
}

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Read the bundled guides",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := listDocsTopics(builtindocs.FS)
		if err != nil {
			return &codedError{code: ErrInternal, err: err}
		}
		if len(args) == 0 {
			return outputDocsTopics(topics)
		}

		id := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(args[0])), ".md")
		for _, t := range topics {
			if t.ID == id {
				return outputDocsTopic(t)
			}
		}
		ids := make([]string, len(topics))
		for i, t := range topics {
			ids[i] = t.ID
		}
		return &docsTopicNotFoundError{Topic: args[0], Suggestions: suggest.Suggest(id, ids, suggest.DefaultLimit)}
	},
}

type docsTopicNotFoundError struct {
	Topic       string
	Suggestions []string
}

func (e *docsTopicNotFoundError) Error() string { return fmt.Sprintf("unknown docs topic %q", e.Topic) }
func (e *docsTopicNotFoundError) Code() string  { return ErrInvalidInput }

func listDocsTopics(docsFS fs.FS) ([]docsTopic, error) {
	entries, err := fs.ReadDir(docsFS, docsRoot)
	if err != nil {
		return nil, err
	}
	var topics []docsTopic
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".md")
		p := path.Join(docsRoot, e.Name())
		topics = append(topics, docsTopic{ID: id, Title: docsTitle(docsFS, p, id), path: p})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].ID < topics[j].ID })
	return topics, nil
}

func docsTitle(docsFS fs.FS, p, fallback string) string {
	f, err := docsFS.Open(p)
	if err != nil {
		return fallback
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "# ") {
			if title := strings.TrimSpace(line[2:]); title != "" {
				return title
			}
		}
	}
	return fallback
}

func outputDocsTopics(topics []docsTopic) error {
	if jsonOutput {
		outputSuccess(map[string]interface{}{"topics": topics}, nil, &Meta{Count: len(topics)})
		return nil
	}
	fmt.Fprintln(stdout, ui.Header("Guides"))
	for _, t := range topics {
		fmt.Fprintf(stdout, "  %-18s %s\n", t.ID, ui.Hint(t.Title))
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, ui.Hint("Read one with: shopctl docs <topic>"))
	return nil
}

func outputDocsTopic(t docsTopic) error {
	content, err := fs.ReadFile(builtindocs.FS, t.path)
	if err != nil {
		return &codedError{code: ErrInternal, err: err}
	}

	if jsonOutput {
		outputSuccess(map[string]interface{}{
			"topic":   t.ID,
			"title":   t.Title,
			"content": string(content),
		}, nil, nil)
		return nil
	}

	out := string(content)
	if d := getDisplay(); d.IsTTY {
		if rendered, err := docsMarkdownRender(out, d.TermWidth); err == nil {
			out = rendered
		}
	}
	fmt.Fprint(stdout, out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(stdout)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
