// Package all imports all transaction sub-packages to trigger their init() registrations.
// Import this package in the main application to ensure all transaction types are registered.
package all

import (
	_ "github.com/xrplgo/goxrpld/internal/core/tx/amm"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/check"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/credential"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/did"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/escrow"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/mpt"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/nftoken"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/offer"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/oracle"
	//_ "github.com/xrplgo/goxrpld/internal/core/tx/paychan"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/payment"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/permissionedDomain"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/trustset"
	_ "github.com/xrplgo/goxrpld/internal/core/tx/vault"
)
