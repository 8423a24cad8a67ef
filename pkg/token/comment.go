package token

// CommentKind distinguishes line vs block comments.
type CommentKind int

// Comment kinds.
const (
	LineComment  CommentKind = iota // -- comment, // comment
	BlockComment                    // /* comment */
)

// Comment is a SQL comment. The guard never rewrites inside comments, so
// they are kept only for diagnostics.
type Comment struct {
	Kind CommentKind
	Text string // includes delimiters
	Span Span
}

// IsLineComment returns true if this is a line comment.
func (c *Comment) IsLineComment() bool {
	return c.Kind == LineComment
}
