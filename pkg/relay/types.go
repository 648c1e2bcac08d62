package relay

// Delivery reports that a relay attempt succeeded: the source message now
// has a counterpart on the destination side.
type Delivery struct {
	ForwarderName string `json:"forwarder_name"`
	SourceID      int64  `json:"source_message_id"`
	DestinationID int64  `json:"destination_message_id"`
}

// Failure reports that a relay attempt could not deliver a source message
// to its destination channel.
type Failure struct {
	ForwarderName string `json:"forwarder_name"`
	SourceID      int64  `json:"source_message_id"`
	DestChannelID int64  `json:"destination_channel_id"`
	Reason        string `json:"reason"`
}
