package rpc

import (
	"encoding/json"
)

// LedgerMethod handles the ledger RPC method
type LedgerMethod struct{}

func (m *LedgerMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// Parse parameters
	var request struct {
		LedgerSpecifier
		Accounts     bool `json:"accounts,omitempty"`
		Full         bool `json:"full,omitempty"`
		Transactions bool `json:"transactions,omitempty"`
		Expand       bool `json:"expand,omitempty"`
		OwnerFunds   bool `json:"owner_funds,omitempty"`
		Binary       bool `json:"binary,omitempty"`
		Queue        bool `json:"queue,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	// TODO: Implement ledger retrieval logic
	// 1. Determine which ledger to retrieve based on LedgerSpecifier:
	//    - If ledger_hash provided: lookup by hash from nodestore
	//    - If ledger_index provided: parse ("validated", "current", "closed", or number)
	//    - If neither provided: use validated ledger
	// 2. Retrieve ledger header from nodestore
	// 3. Optionally retrieve additional data based on flags:
	//    - accounts: include account state data
	//    - full: include all ledger objects
	//    - transactions: include transaction data
	//    - expand: expand transaction and metadata
	//    - queue: include queued transactions (if current ledger)
	// 4. Format response according to API version
	
	// Placeholder response structure
	response := map[string]interface{}{
		"ledger": map[string]interface{}{
			"accepted":        true,
			"account_hash":    "PLACEHOLDER_ACCOUNT_HASH", // TODO: Get from ledger header
			"close_flags":     0,  // TODO: Get from ledger header
			"close_time":      12345678, // TODO: Get from ledger header
			"close_time_human": "2024-01-01T00:00:00.000Z", // TODO: Format close time
			"close_time_resolution": 10, // TODO: Get from ledger header
			"closed":          true,
			"hash":            "PLACEHOLDER_LEDGER_HASH", // TODO: Get actual ledger hash
			"ledger_hash":     "PLACEHOLDER_LEDGER_HASH", // TODO: Same as hash
			"ledger_index":    "1000", // TODO: Get actual ledger index as string
			"parent_close_time": 12345678, // TODO: Get from previous ledger
			"parent_hash":     "PLACEHOLDER_PARENT_HASH", // TODO: Get from ledger header
			"seqNum":          1000, // TODO: Get actual sequence number
			"totalCoins":      "99999999999999999", // TODO: Calculate total XRP
			"transaction_hash": "PLACEHOLDER_TX_HASH", // TODO: Get from ledger header
		},
		"ledger_hash":  "PLACEHOLDER_LEDGER_HASH", // TODO: Get actual hash
		"ledger_index": 1000, // TODO: Get actual index as number
		"validated":    true, // TODO: Check if ledger is validated
	}
	
	// Add transactions if requested
	if request.Transactions {
		response["transactions"] = []interface{}{} // TODO: Load actual transactions
	}
	
	// Add accounts if requested  
	if request.Accounts {
		response["accountState"] = []interface{}{} // TODO: Load account state objects
	}
	
	// Add queue if requested and this is current ledger
	if request.Queue {
		response["queue_data"] = []interface{}{} // TODO: Load queued transactions
	}
	
	return response, nil
}

func (m *LedgerMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *LedgerMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// LedgerClosedMethod handles the ledger_closed RPC method
type LedgerClosedMethod struct{}

func (m *LedgerClosedMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// TODO: Implement closed ledger retrieval
	// This method returns information about the most recently closed ledger
	// that has not yet been validated by consensus
	// Data should come from the ledger manager tracking closed/validated ledgers
	
	response := map[string]interface{}{
		"ledger_hash":  "PLACEHOLDER_CLOSED_HASH", // TODO: Get actual closed ledger hash  
		"ledger_index": 1001, // TODO: Get actual closed ledger index
	}
	
	return response, nil
}

func (m *LedgerClosedMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *LedgerClosedMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// LedgerCurrentMethod handles the ledger_current RPC method
type LedgerCurrentMethod struct{}

func (m *LedgerCurrentMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// TODO: Implement current ledger retrieval
	// This method returns information about the current working ledger
	// (the ledger that new transactions are being applied to)
	// Data should come from the consensus engine or ledger manager
	
	response := map[string]interface{}{
		"ledger_current_index": 1002, // TODO: Get actual current ledger index
	}
	
	return response, nil
}

func (m *LedgerCurrentMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *LedgerCurrentMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// LedgerDataMethod handles the ledger_data RPC method  
type LedgerDataMethod struct{}

func (m *LedgerDataMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// Parse parameters
	var request struct {
		LedgerSpecifier
		Binary bool        `json:"binary,omitempty"`
		Limit  uint32      `json:"limit,omitempty"`
		Marker interface{} `json:"marker,omitempty"`
		Type   string      `json:"type,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	// Validate limit
	if request.Limit > 2048 {
		request.Limit = 2048
	}
	if request.Limit == 0 {
		request.Limit = 256 // Default limit
	}
	
	// TODO: Implement ledger data retrieval
	// 1. Determine target ledger using LedgerSpecifier
	// 2. Retrieve all ledger objects (or filtered by type)
	// 3. Support pagination using marker
	// 4. Apply limit to number of objects returned
	// 5. Return objects in binary or JSON format based on binary flag
	// 6. Calculate next marker for pagination
	// 
	// Object types that can be filtered:
	// - account: AccountRoot objects
	// - amendments: Amendments object
	// - check: Check objects  
	// - deposit_preauth: DepositPreauth objects
	// - directory: DirectoryNode objects
	// - escrow: Escrow objects
	// - fee: FeeSettings object
	// - hashes: LedgerHashes objects
	// - nft_offer: NFTokenOffer objects
	// - nft_page: NFTokenPage objects  
	// - offer: Offer objects
	// - payment_channel: PayChannel objects
	// - signer_list: SignerList objects
	// - state: RippleState objects
	// - ticket: Ticket objects
	
	response := map[string]interface{}{
		"ledger_hash":  "PLACEHOLDER_LEDGER_HASH", // TODO: Get actual ledger hash
		"ledger_index": 1000, // TODO: Get actual ledger index
		"state": []interface{}{
			// TODO: Return actual ledger objects
			// Each object should have structure:
			// {
			//   "data": "hex_data", // if binary=true
			//   "index": "object_hash",
			//   // OR if binary=false:
			//   "Account": "rAccount...",
			//   "Balance": "1000000000",
			//   // ... other object fields
			// }
		},
		"validated": true, // TODO: Check if ledger is validated
		// "marker": "next_page_marker", // TODO: Include if more data available
	}
	
	return response, nil
}

func (m *LedgerDataMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *LedgerDataMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// LedgerEntryMethod handles the ledger_entry RPC method
type LedgerEntryMethod struct{}

func (m *LedgerEntryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// Parse parameters - this method supports multiple ways to specify objects
	var request struct {
		LedgerSpecifier
		// Object specification methods (mutually exclusive):
		Index            string `json:"index,omitempty"`             // Direct object ID
		AccountRoot      string `json:"account_root,omitempty"`      // Account address
		Check            string `json:"check,omitempty"`             // Check object ID
		DepositPreauth   struct {
			Owner      string `json:"owner"`
			Authorized string `json:"authorized"`
		} `json:"deposit_preauth,omitempty"`
		DirectoryNode    string `json:"directory,omitempty"`         // Directory ID
		Escrow          struct {
			Owner  string `json:"owner"`
			Seq    uint32 `json:"seq"`
		} `json:"escrow,omitempty"`
		Offer           struct {
			Account string `json:"account"`
			Seq     uint32 `json:"seq"`
		} `json:"offer,omitempty"`
		PaymentChannel  string `json:"payment_channel,omitempty"`   // Channel ID
		RippleState     struct {
			Accounts  []string `json:"accounts"`
			Currency  string   `json:"currency"`
		} `json:"ripple_state,omitempty"`
		SignerList      string `json:"signer_list,omitempty"`       // Account address
		Ticket          struct {
			Account string `json:"account"`
			TicketID uint32 `json:"ticket_id"`
		} `json:"ticket,omitempty"`
		NFTPage         string `json:"nft_page,omitempty"`          // NFT page ID
		
		Binary bool `json:"binary,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	// TODO: Implement ledger entry retrieval
	// 1. Determine target ledger using LedgerSpecifier
	// 2. Determine object ID based on specification method:
	//    - If index provided: use directly
	//    - If account_root provided: calculate AccountRoot object ID
	//    - If other object type provided: calculate object ID using appropriate method
	// 3. Retrieve object from nodestore using calculated ID
	// 4. Return object in binary or JSON format based on binary flag
	// 5. Include object metadata (index, ledger info)
	//
	// Object ID calculation methods:
	// - AccountRoot: hash(0x61 + account_id)
	// - Offer: hash(0x6F + account_id + sequence)
	// - RippleState: hash(0x72 + account1 + account2 + currency)
	// - SignerList: hash(0x53 + account_id)
	// - Escrow: hash(0x45 + account_id + sequence)
	// - PayChannel: use provided channel ID
	// - DirectoryNode: use provided directory ID
	// - Check: use provided check ID
	// - DepositPreauth: hash(0x70 + owner + authorized)
	// - Ticket: hash(0x54 + account_id + ticket_id)
	// - NFTPage: use provided page ID
	
	response := map[string]interface{}{
		"index":        "PLACEHOLDER_OBJECT_ID", // TODO: Get actual object ID
		"ledger_hash":  "PLACEHOLDER_LEDGER_HASH", // TODO: Get ledger hash
		"ledger_index": 1000, // TODO: Get ledger index
		"validated":    true, // TODO: Check if ledger is validated
		// Object data will be either:
		// "node_binary": "hex_data" (if binary=true)
		// OR the object fields directly (if binary=false)
		// TODO: Load and deserialize actual object data
	}
	
	return response, nil
}

func (m *LedgerEntryMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *LedgerEntryMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// LedgerRangeMethod handles the ledger_range RPC method
type LedgerRangeMethod struct{}

func (m *LedgerRangeMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// Parse parameters
	var request struct {
		StartLedger uint32 `json:"start_ledger"`
		StopLedger  uint32 `json:"stop_ledger"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	// Validate range
	if request.StartLedger == 0 || request.StopLedger == 0 {
		return nil, RpcErrorInvalidParams("start_ledger and stop_ledger are required")
	}
	
	if request.StartLedger > request.StopLedger {
		return nil, RpcErrorInvalidParams("start_ledger cannot be greater than stop_ledger")
	}
	
	// Limit range size to prevent abuse
	if request.StopLedger - request.StartLedger > 1000 {
		return nil, RpcErrorInvalidParams("Ledger range too large (max 1000 ledgers)")
	}
	
	// TODO: Implement ledger range retrieval
	// 1. Validate that requested ledgers exist in nodestore
	// 2. Retrieve ledger hashes for the specified range
	// 3. Return list of ledger indices and their corresponding hashes
	// This method is primarily used for debugging and administrative purposes
	
	response := map[string]interface{}{
		"ledgers": []interface{}{
			// TODO: Return actual ledger range data
			// Each entry should have structure:
			// {
			//   "ledger_index": 1000,
			//   "ledger_hash": "HASH_VALUE"
			// }
		},
	}
	
	return response, nil
}

func (m *LedgerRangeMethod) RequiredRole() Role {
	return RoleAdmin // This method requires admin privileges
}

func (m *LedgerRangeMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}