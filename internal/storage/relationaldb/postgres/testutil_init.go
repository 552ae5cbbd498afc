package postgres

import (
	"github.com/xrplgo/goxrpld/internal/storage/relationaldb"
	"github.com/xrplgo/goxrpld/testutils"
)

func init() {
	// Register the PostgreSQL repository manager factory with testutils
	testutils.RegisterRepositoryFactory("postgres", func(config *relationaldb.Config) (relationaldb.RepositoryManager, error) {
		return NewRepositoryManager(config)
	})
}