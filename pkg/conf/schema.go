// Package conf implements the declarative session-configuration schema:
// a flat table of option ids, each carrying a value type and an
// optional subkey type, backed by a typed heterogeneous in-memory
// store and a YAML persisted form.
//
// Grounded on the teacher's configuration surface style (a single
// generated accessor table keyed by a small enum), generalized to the
// CLI surface's session-relevant option set.
package conf

// ValueType is the kind of value an OptionSpec's slot holds.
type ValueType int

const (
	ValueInt ValueType = iota
	ValueBool
	ValueString
	ValueUTF8
	ValueFilename
	ValueFontSpec
)

func (t ValueType) String() string {
	switch t {
	case ValueInt:
		return "int"
	case ValueBool:
		return "bool"
	case ValueString:
		return "string"
	case ValueUTF8:
		return "utf8"
	case ValueFilename:
		return "filename"
	case ValueFontSpec:
		return "fontspec"
	default:
		return "unknown"
	}
}

// SubkeyType is the type of the map key when an option's slot is a
// subkey → value map rather than a scalar. SubkeyNone means the option
// is a scalar.
type SubkeyType int

const (
	SubkeyNone SubkeyType = iota
	SubkeyString
	SubkeyInt
)

// OptionSpec declares one configuration key: its identity, the type of
// value it stores, and whether that value is a scalar or a map keyed
// by SubkeyType.
type OptionSpec struct {
	ID      Key
	Value   ValueType
	Subkey  SubkeyType
	Default any
}

// Key identifies a configuration option. New keys are added to the
// const block below and registered in the schema table.
type Key int

const (
	HostName Key = iota
	Port
	Protocol
	Username
	AuthMethodOrder
	IdentityFile
	UseAgent
	AgentForwarding
	X11Forwarding
	PortForwardLocal
	PortForwardRemote
	PortForwardDynamic
	RekeyTimeMinutes
	RekeyDataLimit
	BugCompat
	CipherPreference
	KexPreference
	HostKeyPreference
	SSHLogFile
	VerboseLogging
	PingIntervalSeconds
	PreferKnownHostKeys
)

// Protocol selector values for the Protocol option.
const (
	ProtocolSSH    = "ssh"
	ProtocolTelnet = "telnet"
	ProtocolRlogin = "rlogin"
	ProtocolRaw    = "raw"
	ProtocolSerial = "serial"
)

// schema is the declarative option table. Every Key above must have
// exactly one entry here; New does not check this, it only walks the
// entries present.
var schema = map[Key]OptionSpec{
	HostName:            {ID: HostName, Value: ValueString, Default: ""},
	Port:                {ID: Port, Value: ValueInt, Default: 22},
	Protocol:            {ID: Protocol, Value: ValueString, Default: ProtocolSSH},
	Username:            {ID: Username, Value: ValueString, Default: ""},
	AuthMethodOrder:     {ID: AuthMethodOrder, Value: ValueString, Default: "publickey,keyboard-interactive,password"},
	IdentityFile:        {ID: IdentityFile, Value: ValueFilename, Default: ""},
	UseAgent:            {ID: UseAgent, Value: ValueBool, Default: true},
	AgentForwarding:     {ID: AgentForwarding, Value: ValueBool, Default: false},
	X11Forwarding:       {ID: X11Forwarding, Value: ValueBool, Default: false},
	PortForwardLocal:    {ID: PortForwardLocal, Value: ValueString, Subkey: SubkeyString},
	PortForwardRemote:   {ID: PortForwardRemote, Value: ValueString, Subkey: SubkeyString},
	PortForwardDynamic:  {ID: PortForwardDynamic, Value: ValueString, Subkey: SubkeyString},
	RekeyTimeMinutes:    {ID: RekeyTimeMinutes, Value: ValueInt, Default: 60},
	RekeyDataLimit:      {ID: RekeyDataLimit, Value: ValueInt, Default: 1 << 30},
	BugCompat:           {ID: BugCompat, Value: ValueInt, Subkey: SubkeyString},
	CipherPreference:    {ID: CipherPreference, Value: ValueString, Default: ""},
	KexPreference:       {ID: KexPreference, Value: ValueString, Default: ""},
	HostKeyPreference:   {ID: HostKeyPreference, Value: ValueString, Default: ""},
	SSHLogFile:          {ID: SSHLogFile, Value: ValueFilename, Default: ""},
	VerboseLogging:      {ID: VerboseLogging, Value: ValueBool, Default: false},
	PingIntervalSeconds: {ID: PingIntervalSeconds, Value: ValueInt, Default: 0},
	PreferKnownHostKeys: {ID: PreferKnownHostKeys, Value: ValueBool, Default: true},
}

// keyNames backs Key.String() and the YAML field names; every schema
// key must appear here.
var keyNames = map[Key]string{
	HostName:            "host_name",
	Port:                "port",
	Protocol:            "protocol",
	Username:            "username",
	AuthMethodOrder:     "auth_method_order",
	IdentityFile:        "identity_file",
	UseAgent:            "use_agent",
	AgentForwarding:     "agent_forwarding",
	X11Forwarding:       "x11_forwarding",
	PortForwardLocal:    "port_forward_local",
	PortForwardRemote:   "port_forward_remote",
	PortForwardDynamic:  "port_forward_dynamic",
	RekeyTimeMinutes:    "rekey_time_minutes",
	RekeyDataLimit:      "rekey_data_limit",
	BugCompat:           "bug_compat",
	CipherPreference:    "cipher_preference",
	KexPreference:       "kex_preference",
	HostKeyPreference:   "host_key_preference",
	SSHLogFile:          "ssh_log_file",
	VerboseLogging:      "verbose_logging",
	PingIntervalSeconds: "ping_interval_seconds",
	PreferKnownHostKeys: "prefer_known_hostkeys",
}

var nameToKey = func() map[string]Key {
	m := make(map[string]Key, len(keyNames))
	for k, name := range keyNames {
		m[name] = k
	}
	return m
}()

// String renders a Key's YAML/flat-map field name, or "" for an
// unregistered key.
func (k Key) String() string {
	return keyNames[k]
}

// KeyByName looks up a Key by its YAML/flat-map field name.
func KeyByName(name string) (Key, bool) {
	k, ok := nameToKey[name]
	return k, ok
}
