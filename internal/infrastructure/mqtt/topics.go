package mqtt

import "fmt"

// TopicPrefix is the root of every Gray Logic topic.
const TopicPrefix = "graylogic"

// Topics provides builders for the topics this service uses.
//
//	topics := mqtt.Topics{}
//	topics.AutopilotCommand() // "graylogic/autopilot/command"
type Topics struct{}

// AutopilotCommand is where controllers send {"enabled":bool} or {"reset":true}.
func (Topics) AutopilotCommand() string {
	return TopicPrefix + "/autopilot/command"
}

// AutopilotState carries the retained autopilot status.
func (Topics) AutopilotState() string {
	return TopicPrefix + "/autopilot/state"
}

// AutopilotEvent carries one lifecycle event (started, enabled, disabled).
//
// Example: graylogic/autopilot/event/started
func (Topics) AutopilotEvent(event string) string {
	return fmt.Sprintf("%s/autopilot/event/%s", TopicPrefix, event)
}

// ServiceStatus carries the retained online/offline status of a client.
//
// Example: graylogic/system/status/graylogic-autopilot
func (Topics) ServiceStatus(clientID string) string {
	return fmt.Sprintf("%s/system/status/%s", TopicPrefix, clientID)
}

// AllAutopilot matches every autopilot topic.
func (Topics) AllAutopilot() string {
	return TopicPrefix + "/autopilot/#"
}
