package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateTaskMessage]           = (*CreateTaskCommand)(nil)
	_ gocmd.Commander[UpdateTaskMessage]           = (*UpdateTaskCommand)(nil)
	_ gocmd.Commander[DeleteTaskMessage]           = (*DeleteTaskCommand)(nil)
	_ gocmd.Commander[RecordSessionMessage]        = (*RecordSessionCommand)(nil)
	_ gocmd.Commander[RecordBasicSessionMessage]   = (*RecordBasicSessionCommand)(nil)
	_ gocmd.Commander[UpdateProtocolStatusMessage] = (*UpdateProtocolStatusCommand)(nil)
	_ gocmd.Commander[UpdateProtocolMetaMessage]   = (*UpdateProtocolMetaCommand)(nil)
)
