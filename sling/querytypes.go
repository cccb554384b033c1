package sling

// Infinity asks the JSON servlet for the whole subtree.  Instances commonly cap this, so prefer a
// bounded depth for large trees.
const Infinity = -1

// TreeQuery describes a request to the default GET servlet: <Path>.<Depth>.json
type TreeQuery struct {
	Path  string `url:"-"`
	Depth int    `url:"-"`

	// Character encoding of the response, e.g. "utf-8".
	Charset string `url:"_charset_,omitempty"`
}
