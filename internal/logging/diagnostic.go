package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"
)

const maxRuleSnippet = 256

// Diagnostic is written as a single JSON object per rejected rule.
type Diagnostic struct {
	Timestamp time.Time `json:"ts"`
	File      string    `json:"file"`
	Line      int       `json:"line"`
	SID       uint64    `json:"sid,omitempty"`
	Category  string    `json:"category"`
	Reason    string    `json:"reason"`
	Keyword   string    `json:"keyword,omitempty"`
	Message   string    `json:"message"`
	Rule      string    `json:"rule"`
}

type DiagnosticLogger struct {
	w io.Writer
}

func NewDiagnosticLogger(w io.Writer) *DiagnosticLogger {
	return &DiagnosticLogger{w: w}
}

func OpenDiagnosticLog(path string) (*DiagnosticLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewDiagnosticLogger(file), file.Close, nil
}

func (l *DiagnosticLogger) Write(d Diagnostic) error {
	if l == nil {
		return nil
	}
	d.Rule = Snippet(d.Rule)

	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = l.w.Write(append(data, '\n'))
	return err
}

// Snippet bounds rule text copied into logs.
func Snippet(rule string) string {
	if len(rule) <= maxRuleSnippet {
		return rule
	}
	return rule[:maxRuleSnippet]
}
