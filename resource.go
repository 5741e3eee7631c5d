package viking

// Resource is a live handle on a numbered resource slot, acquired via
// Interface.Resource or Interface.ResourceByID. At most one handle per
// resource id exists at a time (enforced by Interface's resource bitset);
// Close releases it so the name can be acquired again (§3, TESTABLE
// PROPERTIES 6).
type Resource struct {
	iface         *Interface
	id            uint8
	name          string
	currentModeID uint8 // 0 until Configure is called
}

// ID returns the resource's 1-based id.
func (r *Resource) ID() uint8 { return r.id }

// Name returns the resource's descriptor name.
func (r *Resource) Name() string { return r.name }

// Interface returns the Interface this resource belongs to.
func (r *Resource) Interface() *Interface { return r.iface }

// Configure issues CONFIGURE_MODE for this resource (§4.4). modeID=0
// deconfigures the resource. body carries mode-specific configuration
// bytes, empty for none.
func (r *Resource) Configure(modeID uint8, body []byte) error {
	reqType := uint8(RequestDirectionOut | RequestTypeVendor | RequestRecipientInterface)
	value := uint16(r.id)<<8 | uint16(modeID)
	_, err := r.iface.transport.Control(reqType, ReqConfigureMode, value, uint16(r.iface.number), body, r.iface.controlTimeout)
	if err != nil {
		return newUSBError("resource.configure", err)
	}
	r.currentModeID = modeID
	return nil
}

// ConfigureProtocol looks up a mode by protocol number on this resource,
// configures it with body, and returns the mode id. It fails with
// ErrNotFound (KindNotFound) if no mode with that protocol is present.
func (r *Resource) ConfigureProtocol(protocol uint16, body []byte) (uint8, error) {
	modeID, ok := r.iface.topology.FindMode(r.id, protocol)
	if !ok {
		return 0, newNotFound("resource.configureProtocol", r.name)
	}
	if err := r.Configure(modeID, body); err != nil {
		return 0, err
	}
	return modeID, nil
}

// ConfigureNamed looks up a mode by its descriptor name on this resource,
// verifies its protocol number matches wantProtocol, configures it with
// body, and returns the mode id. It fails with ErrNotFound if no mode has
// that name, or ErrModeMismatch if a mode with that name exists but its
// protocol isn't wantProtocol (§7: a name found but whose protocol
// doesn't match the requested mode type is a mode-match error, distinct
// from a plain not-found).
func (r *Resource) ConfigureNamed(name string, wantProtocol uint16, body []byte) (uint8, error) {
	modeID, ok := r.iface.topology.FindModeNamed(r.id, name)
	if !ok {
		return 0, newNotFound("resource.configureNamed", name)
	}
	m, ok := r.iface.topology.ModeByID(r.id, modeID)
	if !ok || m.Protocol != wantProtocol {
		return 0, newModeMismatch("resource.configureNamed", name)
	}
	if err := r.Configure(modeID, body); err != nil {
		return 0, err
	}
	return modeID, nil
}

// DescribeMode returns the descriptor bytes of the given mode id on this
// resource, as parsed at attach time.
func (r *Resource) DescribeMode(modeID uint8) ([]byte, bool) {
	m, ok := r.iface.topology.ModeByID(r.id, modeID)
	if !ok {
		return nil, false
	}
	return m.DescriptorBytes, true
}

// CurrentModeID returns the mode id last passed to Configure, or 0 if the
// resource has not been configured.
func (r *Resource) CurrentModeID() uint8 { return r.currentModeID }

// Close releases the resource handle, allowing the resource to be
// acquired again.
func (r *Resource) Close() error {
	r.iface.release(r.id)
	return nil
}

// command builds a Command against this resource's id.
func (r *Resource) command(op uint8, payload Payload, response Response) Command {
	return Command{ResourceID: r.id, Op: op, Payload: payload, Response: response}
}
