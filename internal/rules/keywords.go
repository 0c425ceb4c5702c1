package rules

import (
	"strconv"
	"strings"

	"github.com/klyr/fastpat/internal/buffers"
	"github.com/klyr/fastpat/internal/fastpattern"
	"github.com/klyr/fastpat/internal/signature"
)

type setupFunc func(sig *signature.Signature, arg string) error

var keywords = map[string]setupFunc{
	"msg":               setupMsg,
	"sid":               setupSID,
	"rev":               setupRev,
	"content":           setupContent,
	"nocase":            setupNocase,
	"distance":          relativeSetup("distance", signature.FlagDistance),
	"within":            relativeSetup("within", signature.FlagWithin),
	"offset":            relativeSetup("offset", signature.FlagOffset),
	"depth":             relativeSetup("depth", signature.FlagDepth),
	fastpattern.Keyword: fastpattern.Apply,
}

func init() {
	for _, kind := range buffers.Kinds() {
		if kind.IsHTTP() {
			keywords[kind.String()] = bufferSetup(kind)
		}
	}
}

func setupMsg(sig *signature.Signature, arg string) error {
	sig.Msg = strings.Trim(arg, `"`)
	return nil
}

func setupSID(sig *signature.Signature, arg string) error {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return signature.ParseErrorf("sid", signature.ReasonBadArgument, "invalid sid %q", arg)
	}
	sig.ID = id
	return nil
}

func setupRev(sig *signature.Signature, arg string) error {
	rev, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return signature.ParseErrorf("rev", signature.ReasonBadArgument, "invalid rev %q", arg)
	}
	sig.Rev = uint32(rev)
	return nil
}

func setupContent(sig *signature.Signature, arg string) error {
	pattern, negated, err := decodeContent(arg)
	if err != nil {
		return err
	}
	c := &signature.Content{Pattern: pattern, Buffer: buffers.Payload}
	if negated {
		c.Flags |= signature.FlagNegated
	}
	sig.AddContent(c)
	return nil
}

func lastContent(sig *signature.Signature, keyword string) (*signature.Content, error) {
	c := sig.LastContent()
	if c == nil {
		return nil, signature.Invalidf(keyword, signature.ReasonNoContent,
			"%s needs a preceding content option", keyword)
	}
	return c, nil
}

func setupNocase(sig *signature.Signature, _ string) error {
	c, err := lastContent(sig, "nocase")
	if err != nil {
		return err
	}
	if c.Has(signature.FlagNocase) {
		return signature.Invalidf("nocase", signature.ReasonDuplicateModifier, "can't use multiple nocase modifiers with the same content")
	}
	c.Flags |= signature.FlagNocase
	return nil
}

func relativeSetup(keyword string, flag signature.Flags) setupFunc {
	return func(sig *signature.Signature, arg string) error {
		c, err := lastContent(sig, keyword)
		if err != nil {
			return err
		}
		value, err := strconv.Atoi(arg)
		if err != nil {
			return signature.ParseErrorf(keyword, signature.ReasonBadArgument, "invalid %s value %q", keyword, arg)
		}
		if c.Has(flag) {
			return signature.Invalidf(keyword, signature.ReasonDuplicateModifier, "can't use multiple %s modifiers with the same content", keyword)
		}
		if err := fastpattern.CheckRelativeModifier(c, keyword); err != nil {
			return err
		}

		switch flag {
		case signature.FlagDistance:
			c.Distance = value
		case signature.FlagWithin:
			c.Within = value
		case signature.FlagOffset:
			c.Offset = value
		case signature.FlagDepth:
			c.Depth = value
		}
		c.Flags |= flag
		return nil
	}
}

func bufferSetup(kind buffers.Kind) setupFunc {
	name := kind.String()
	return func(sig *signature.Signature, _ string) error {
		c, err := lastContent(sig, name)
		if err != nil {
			return err
		}
		if c.Buffer != buffers.Payload {
			return signature.Invalidf(name, signature.ReasonBufferAlreadySet,
				"content %q is already scoped to %s", c.Pattern, c.Buffer)
		}
		sig.MoveContent(c, kind)
		return nil
	}
}
