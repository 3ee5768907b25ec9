package object

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Signature identifies the author or committer of a commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// String renders the signature in the canonical commit header form:
// "Name <email> <unix-seconds> <±zone>".
func (s Signature) String() string {
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, s.When.Unix(), s.When.Format("-0700"))
}

// Commit holds the fields assembled into a commit object payload. Parent
// is optional; an empty hash marks a root commit and omits the parent
// line entirely. SigString carries an optional signature header produced
// by a CLI-level signer.
type Commit struct {
	Tree      Hash
	Parent    Hash
	Author    Signature
	Committer Signature
	SigString string
	Message   string
}

// CommitPayload assembles the commit object payload:
//
//	tree <hash>
//	parent <hash>        (omitted for root commits)
//	author <signature>
//	committer <signature>
//	signature <sig>      (only when signed)
//
//	<message>
//
// The message body always ends with exactly one newline. The payload is
// pure formatting; it is not parsed back into fields anywhere in this
// package.
func CommitPayload(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	if c.Parent != "" {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if strings.TrimSpace(c.SigString) != "" {
		fmt.Fprintf(&buf, "signature %s\n", c.SigString)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	if !strings.HasSuffix(c.Message, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// SigningPayload returns the canonical bytes that are signed for a
// commit. The payload intentionally excludes the signature field itself.
func SigningPayload(c *Commit) []byte {
	if c == nil {
		return nil
	}
	unsigned := *c
	unsigned.SigString = ""
	return CommitPayload(&unsigned)
}
