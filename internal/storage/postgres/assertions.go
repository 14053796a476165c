package postgres

import "github.com/tinoosan/bukubesar/internal/storage"

var (
	_ storage.Store        = (*Store)(nil)
	_ storage.ReadyChecker = (*Store)(nil)
	_ storage.Tx           = (*Tx)(nil)
)
