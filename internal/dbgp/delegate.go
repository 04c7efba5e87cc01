package dbgp

// Delegate receives the notifications of a Connection.  Implementations
// that only care about some calls embed BaseDelegate or use
// DelegateFuncs.
type Delegate interface {
	// OnAccept is called once an engine has connected.
	OnAccept(c *Connection)
	// OnClose is called once when an accepted session ends.
	OnClose(c *Connection)
	// OnInit receives the engine's initial packet.
	OnInit(c *Connection, doc *Document)
	// OnResponse receives every later packet.
	OnResponse(c *Connection, doc *Document)
	// OnError receives listen, I/O, framing and parse errors.
	OnError(c *Connection, err error)
}

// BaseDelegate implements every Delegate method as a no-op.
type BaseDelegate struct{}

func (BaseDelegate) OnAccept(*Connection)              {}
func (BaseDelegate) OnClose(*Connection)               {}
func (BaseDelegate) OnInit(*Connection, *Document)     {}
func (BaseDelegate) OnResponse(*Connection, *Document) {}
func (BaseDelegate) OnError(*Connection, error)        {}

// DelegateFuncs adapts plain functions to a Delegate.  Calls for nil
// fields are dropped.
type DelegateFuncs struct {
	Accept   func(c *Connection)
	Close    func(c *Connection)
	Init     func(c *Connection, doc *Document)
	Response func(c *Connection, doc *Document)
	Error    func(c *Connection, err error)
}

func (f DelegateFuncs) OnAccept(c *Connection) {
	if f.Accept != nil {
		f.Accept(c)
	}
}

func (f DelegateFuncs) OnClose(c *Connection) {
	if f.Close != nil {
		f.Close(c)
	}
}

func (f DelegateFuncs) OnInit(c *Connection, doc *Document) {
	if f.Init != nil {
		f.Init(c, doc)
	}
}

func (f DelegateFuncs) OnResponse(c *Connection, doc *Document) {
	if f.Response != nil {
		f.Response(c, doc)
	}
}

func (f DelegateFuncs) OnError(c *Connection, err error) {
	if f.Error != nil {
		f.Error(c, err)
	}
}
