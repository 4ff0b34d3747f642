package kafka

import "fmt"

// TopicPrefix is the namespace shared by all topics this service produces.
const TopicPrefix = "chalkak"

// Topic builds a fully-qualified topic name: <prefix>.<domain>.<action>.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
