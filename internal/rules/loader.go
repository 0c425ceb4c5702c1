package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klyr/fastpat/internal/logging"
	"github.com/klyr/fastpat/internal/observability"
	"github.com/klyr/fastpat/internal/signature"
)

const maxRuleLine = 1 << 20

// Rejection records a rule that failed to compile.
type Rejection struct {
	File string
	Line int
	Rule string
	Err  *signature.Error
}

// Ruleset is the outcome of loading one or more rule files.
type Ruleset struct {
	Signatures []*signature.Signature
	Rejected   []Rejection
}

// Loader compiles rule files. A rule that fails is rejected and loading
// carries on with the next one.
type Loader struct {
	Logger      *zap.Logger
	Diagnostics *logging.DiagnosticLogger
	Metrics     *observability.Metrics

	now  func() time.Time
	sids map[uint64]string
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Logger: logger, now: time.Now, sids: map[uint64]string{}}
}

// LoadFiles loads every file into a single ruleset; sids must be unique
// across all of them.
func (l *Loader) LoadFiles(paths ...string) (*Ruleset, error) {
	rs := &Ruleset{}
	for _, path := range paths {
		if err := l.loadFile(rs, path); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

func (l *Loader) loadFile(rs *Ruleset, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open rules: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := l.load(rs, path, file); err != nil {
		return fmt.Errorf("read rules %s: %w", path, err)
	}
	return nil
}

// LoadReader loads rules from r; name is used in diagnostics.
func (l *Loader) LoadReader(name string, r io.Reader) (*Ruleset, error) {
	rs := &Ruleset{}
	if err := l.load(rs, name, r); err != nil {
		return nil, err
	}
	return rs, nil
}

func (l *Loader) load(rs *Ruleset, name string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRuleLine)

	var (
		pending   strings.Builder
		startLine int
		lineNo    int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if pending.Len() == 0 {
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			startLine = lineNo
		}

		// a trailing backslash continues the rule on the next line
		if strings.HasSuffix(line, `\`) {
			pending.WriteString(strings.TrimSuffix(line, `\`))
			continue
		}
		pending.WriteString(line)
		l.compile(rs, name, startLine, pending.String())
		pending.Reset()
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if pending.Len() > 0 {
		l.compile(rs, name, startLine, pending.String())
	}
	return nil
}

func (l *Loader) compile(rs *Ruleset, name string, line int, text string) {
	sig, err := ParseRule(text)
	if err == nil {
		err = l.checkSID(sig, name, line)
	}
	if err != nil {
		l.reject(rs, name, line, text, sig, err)
		return
	}

	rs.Signatures = append(rs.Signatures, sig)
	l.Metrics.RuleLoaded()
	l.log().Debug("rule loaded",
		zap.String("file", name),
		zap.Int("line", line),
		zap.Uint64("sid", sig.ID),
	)
}

func (l *Loader) log() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

func (l *Loader) checkSID(sig *signature.Signature, name string, line int) error {
	if sig.ID == 0 {
		return signature.Invalidf("sid", signature.ReasonMissingSID, "rule has no sid")
	}
	if l.sids == nil {
		l.sids = map[uint64]string{}
	}
	where := fmt.Sprintf("%s:%d", name, line)
	if prev, exists := l.sids[sig.ID]; exists {
		return signature.Invalidf("sid", signature.ReasonDuplicateSID, "sid %d already used at %s", sig.ID, prev)
	}
	l.sids[sig.ID] = where
	return nil
}

func (l *Loader) reject(rs *Ruleset, name string, line int, text string, sig *signature.Signature, err error) {
	var serr *signature.Error
	if !errors.As(err, &serr) {
		serr = signature.ParseErrorf("", signature.ReasonSyntax, "%v", err)
	}
	rs.Rejected = append(rs.Rejected, Rejection{File: name, Line: line, Rule: text, Err: serr})

	var sid uint64
	if sig != nil {
		sid = sig.ID
	}
	l.Metrics.RuleRejected(string(serr.Category), string(serr.Reason))
	l.log().Warn("rule rejected",
		zap.String("file", name),
		zap.Int("line", line),
		zap.Uint64("sid", sid),
		zap.String("category", string(serr.Category)),
		zap.String("reason", string(serr.Reason)),
		zap.Error(serr),
	)

	now := time.Now
	if l.now != nil {
		now = l.now
	}
	if werr := l.Diagnostics.Write(logging.Diagnostic{
		Timestamp: now().UTC(),
		File:      name,
		Line:      line,
		SID:       sid,
		Category:  string(serr.Category),
		Reason:    string(serr.Reason),
		Keyword:   serr.Keyword,
		Message:   serr.Detail,
		Rule:      text,
	}); werr != nil {
		l.log().Error("write diagnostic", zap.Error(werr))
	}
}
