package dbgp

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	dbgperr "dbgpc/internal/errors"
)

// Element is a generic XML element.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*Element `xml:",any"`
}

// Name returns the element's local name.
func (e *Element) Name() string { return e.XMLName.Local }

// Attr returns the attribute with the given local name.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the attribute with the given local name, or "".
func (e *Element) AttrValue(name string) string {
	v, _ := e.Attr(name)
	return v
}

// Child returns the first direct child with the given local name.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.XMLName.Local == name {
			return c
		}
	}
	return nil
}

// Find returns the first element named name in a depth-first walk of
// e's descendants, or nil.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.XMLName.Local == name {
			return c
		}
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// FindAll returns every descendant named name in document order.
func (e *Element) FindAll(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.XMLName.Local == name {
			out = append(out, c)
		}
		out = append(out, c.FindAll(name)...)
	}
	return out
}

// Value returns the element's text, decoded when the element carries
// encoding="base64".
func (e *Element) Value() (string, error) {
	text := strings.TrimSpace(e.Text)
	if e.AttrValue("encoding") != "base64" {
		return text, nil
	}
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", fmt.Errorf("decode %s value: %w", e.Name(), err)
	}
	return string(b), nil
}

// Document is one parsed inbound packet.
type Document struct {
	Root *Element
	Raw  []byte
}

// ParseDocument parses a packet payload.  Failures are reported as
// *errors.ParseError.
func ParseDocument(payload []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	// Engines may declare ISO-8859-1 or another legacy charset.
	dec.CharsetReader = charset.NewReaderLabel

	root := new(Element)
	if err := dec.Decode(root); err != nil {
		return nil, &dbgperr.ParseError{Size: len(payload), Err: err}
	}
	return &Document{Root: root, Raw: payload}, nil
}

// Name returns the root element's name: "init", "response", "stream"
// or "notify" for well-behaved engines.
func (d *Document) Name() string { return d.Root.Name() }

// IsInit reports whether the document is an engine init packet.
func (d *Document) IsInit() bool { return d.Root.Name() == "init" }

// Attr returns a root attribute.
func (d *Document) Attr(name string) string { return d.Root.AttrValue(name) }

// TransactionID returns the root's transaction_id attribute.
func (d *Document) TransactionID() (int, bool) {
	v, ok := d.Root.Attr("transaction_id")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return id, true
}

// Command returns the command the response answers.
func (d *Document) Command() string { return d.Attr("command") }

// Status returns the engine status: starting, break, running, stopping
// or stopped.
func (d *Document) Status() string { return d.Attr("status") }

// Reason returns ok, error, aborted or exception.
func (d *Document) Reason() string { return d.Attr("reason") }

// Find returns the first element named name below the root.
func (d *Document) Find(name string) *Element { return d.Root.Find(name) }

// FindAll returns every element named name below the root.
func (d *Document) FindAll(name string) []*Element { return d.Root.FindAll(name) }

// EngineError is an <error> element of a response.
type EngineError struct {
	Code    int
	Message string
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("engine error %d", e.Code)
	}
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// Err returns the response's <error> element as an error, or nil.
func (d *Document) Err() error {
	el := d.Root.Child("error")
	if el == nil {
		return nil
	}
	code, _ := strconv.Atoi(el.AttrValue("code"))
	e := &EngineError{Code: code}
	if m := el.Child("message"); m != nil {
		e.Message = strings.TrimSpace(m.Text)
	}
	return e
}

// InitInfo describes the engine from its init packet.
type InitInfo struct {
	AppID           string
	IDEKey          string
	Session         string
	Thread          string
	Parent          string
	Language        string
	ProtocolVersion string
	FileURI         string
	Engine          string
	EngineVersion   string
}

// Init returns the init packet's attributes.  ok is false for any
// other document.
func (d *Document) Init() (info InitInfo, ok bool) {
	if !d.IsInit() {
		return InitInfo{}, false
	}
	info = InitInfo{
		AppID:           d.Attr("appid"),
		IDEKey:          d.Attr("idekey"),
		Session:         d.Attr("session"),
		Thread:          d.Attr("thread"),
		Parent:          d.Attr("parent"),
		Language:        d.Attr("language"),
		ProtocolVersion: d.Attr("protocol_version"),
		FileURI:         d.Attr("fileuri"),
	}
	if e := d.Root.Child("engine"); e != nil {
		info.Engine = strings.TrimSpace(e.Text)
		info.EngineVersion = e.AttrValue("version")
	}
	return info, true
}

// Indent renders the document as indented XML.
func (d *Document) Indent() string {
	var b strings.Builder
	writeElement(&b, d.Root, 0)
	return b.String()
}

func writeElement(b *strings.Builder, e *Element, depth int) {
	pad := strings.Repeat("  ", depth)
	b.WriteString(pad)
	b.WriteByte('<')
	b.WriteString(qualified(e.XMLName))
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(qualified(a.Name))
		b.WriteString(`="`)
		xml.EscapeText(b, []byte(a.Value)) //nolint:errcheck // strings.Builder never fails
		b.WriteByte('"')
	}

	text := strings.TrimSpace(e.Text)
	if text == "" && len(e.Children) == 0 {
		b.WriteString("/>\n")
		return
	}
	b.WriteByte('>')
	if len(e.Children) == 0 {
		xml.EscapeText(b, []byte(text)) //nolint:errcheck
	} else {
		b.WriteByte('\n')
		if text != "" {
			b.WriteString(pad + "  ")
			xml.EscapeText(b, []byte(text)) //nolint:errcheck
			b.WriteByte('\n')
		}
		for _, c := range e.Children {
			writeElement(b, c, depth+1)
		}
		b.WriteString(pad)
	}
	b.WriteString("</")
	b.WriteString(qualified(e.XMLName))
	b.WriteString(">\n")
}

// qualified renders a name the way it most likely appeared.  The
// decoder resolves prefixes to namespace URLs, so xmlns declarations
// keep their prefix and other namespaces are dropped.
func qualified(n xml.Name) string {
	if n.Space == "xmlns" {
		return "xmlns:" + n.Local
	}
	return n.Local
}

// EscapedURIPath turns a local path into the file:// URI engines
// expect in breakpoint and source commands.
func EscapedURIPath(path string) string {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
