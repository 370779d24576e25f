package linkbuilder

// Invocation is a recorded call to a handler method. Nothing is ever executed; the invocation only
// captures what would have been called and with which arguments.
type Invocation struct {
	Method    MethodReference
	Arguments []interface{}

	// The invocation that produced the receiver of this one, if the call was made on the result of
	// a previous call.
	Parent *Invocation

	target    string
	recording *recording
}

// On continues the chain on the result of the invocation. Calls made on the returned proxy are
// addressed relative to this invocation's URI.
func (inv *Invocation) On(typeName string) *Proxy {
	return &Proxy{
		typeName:  typeName,
		parent:    inv,
		recording: inv.recording,
	}
}

// Chain returns the invocations leading up to and including this one, root first.
func (inv *Invocation) Chain() []*Invocation {
	var ret []*Invocation
	for i := inv; i != nil; i = i.Parent {
		ret = append(ret, i)
	}
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret
}

// Proxy is the stand-in for a handler type. It records calls made against it.
type Proxy struct {
	typeName  string
	parent    *Invocation
	recording *recording
}

// Type returns the name of the type the proxy stands in for.
func (p *Proxy) Type() string {
	return p.typeName
}

// Call records a call of the given method. If the method reference doesn't name a type, the
// proxy's type is assumed. Arguments are matched to the method's parameters by position. Use nil or
// Unbound to leave a variable open.
func (p *Proxy) Call(method MethodReference, args ...interface{}) *Invocation {
	if method.Type == "" {
		method.Type = p.typeName
	}
	return &Invocation{
		Method:    method,
		Arguments: args,
		Parent:    p.parent,
		target:    p.typeName,
		recording: p.recording,
	}
}
