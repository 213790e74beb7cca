package wire

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	dpsResponsePrefix      = "$dps/registrations/res/"
	commandPrefix          = "$iothub/methods/POST/"
	twinResponsePrefix     = "$iothub/twin/res/"
	writablePropertyPrefix = "$iothub/twin/PATCH/properties/desired/"
)

// DPSResponse carries the fields encoded in a DPS response topic.
type DPSResponse struct {
	// Status is the HTTP-style status of the registration request.
	Status int
	// RequestID echoes the $rid of the originating request.
	RequestID string
	// RetryAfter is the polling delay in seconds suggested by the
	// service, or zero when the topic carried none.
	RetryAfter uint32
}

// ParseDPSResponseTopic parses a topic of the form
//
//	$dps/registrations/res/{status}/?$rid={rid}[&retry-after={seconds}]
//
// and reports whether the topic was a DPS response at all.
func ParseDPSResponseTopic(topic string) (DPSResponse, bool) {
	rest, found := strings.CutPrefix(topic, dpsResponsePrefix)
	if !found {
		return DPSResponse{}, false
	}
	statusStr, query, found := strings.Cut(rest, "/?")
	if !found {
		return DPSResponse{}, false
	}
	status, err := strconv.Atoi(statusStr)
	if err != nil {
		return DPSResponse{}, false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return DPSResponse{}, false
	}
	resp := DPSResponse{Status: status, RequestID: values.Get("$rid")}
	if ra := values.Get("retry-after"); ra != "" {
		secs, err := strconv.ParseUint(ra, 10, 32)
		if err != nil {
			return DPSResponse{}, false
		}
		resp.RetryAfter = uint32(secs)
	}
	return resp, true
}

// Command carries the fields encoded in a direct method topic.
type Command struct {
	// Component is the Plug and Play component the command addresses,
	// empty for commands on the default component.
	Component string
	// Name is the command name.
	Name string
	// RequestID must be echoed on the response topic.
	RequestID string
}

// ParseCommandTopic parses a topic of the form
//
//	$iothub/methods/POST/{name}/?$rid={rid}
//
// where {name} may be "component*command" for a Plug and Play component
// command.
func ParseCommandTopic(topic string) (Command, bool) {
	rest, found := strings.CutPrefix(topic, commandPrefix)
	if !found {
		return Command{}, false
	}
	name, query, found := strings.Cut(rest, "/?")
	if !found || name == "" {
		return Command{}, false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return Command{}, false
	}
	cmd := Command{Name: name, RequestID: values.Get("$rid")}
	if component, sub, found := strings.Cut(name, ComponentSeparator); found {
		cmd.Component = component
		cmd.Name = sub
	}
	return cmd, true
}

// TwinResponse carries the fields encoded in a twin response topic.
type TwinResponse struct {
	// Status is the HTTP-style result of the twin request.
	Status int
	// RequestID echoes the $rid of the originating request.
	RequestID string
	// Version is the twin version reported on reported-property
	// acknowledgements, empty otherwise.
	Version string
}

// IsError reports whether the response indicates a failed request.
func (r TwinResponse) IsError() bool {
	return r.Status >= 400
}

// ParseTwinResponseTopic parses a topic of the form
//
//	$iothub/twin/res/{status}/?$rid={rid}[&$version={version}]
func ParseTwinResponseTopic(topic string) (TwinResponse, bool) {
	rest, found := strings.CutPrefix(topic, twinResponsePrefix)
	if !found {
		return TwinResponse{}, false
	}
	statusStr, query, found := strings.Cut(rest, "/?")
	if !found {
		return TwinResponse{}, false
	}
	status, err := strconv.Atoi(statusStr)
	if err != nil {
		return TwinResponse{}, false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return TwinResponse{}, false
	}
	return TwinResponse{
		Status:    status,
		RequestID: values.Get("$rid"),
		Version:   values.Get("$version"),
	}, true
}

// IsWritablePropertyTopic reports whether the topic carries a desired
// property patch pushed by the service.
func IsWritablePropertyTopic(topic string) bool {
	return strings.HasPrefix(topic, writablePropertyPrefix)
}
