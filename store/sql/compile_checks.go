package sqlstore

import "github.com/goliatone/go-studio/core"

var (
	_ core.TaskStore     = (*TaskStore)(nil)
	_ core.ProtocolStore = (*ProtocolStore)(nil)
	_ core.SessionStore  = (*SessionStore)(nil)
	_ core.StoreProvider = (*RepositoryFactory)(nil)
)
