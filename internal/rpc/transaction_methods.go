package rpc

import (
	"encoding/json"
)

// TxMethod handles the tx RPC method
type TxMethod struct{}

func (m *TxMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		TransactionParam
		Binary      bool `json:"binary,omitempty"`
		MinLedger   uint32 `json:"min_ledger,omitempty"`
		MaxLedger   uint32 `json:"max_ledger,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	if request.Transaction == "" {
		return nil, RpcErrorInvalidParams("Missing required parameter: transaction")
	}
	
	// TODO: Implement transaction lookup
	// 1. Parse transaction ID (hash) from request
	// 2. Search transaction database within specified ledger range (if provided)
	// 3. Retrieve transaction data and metadata
	// 4. Return transaction in binary or JSON format based on binary flag
	// 5. Include ledger information and validation status
	
	response := map[string]interface{}{
		"Account":         "rAccount...", // TODO: Get from actual transaction
		"Amount":          "1000000000", // TODO: Get from actual transaction
		"Destination":     "rDest...",   // TODO: Get from actual transaction
		"Fee":             "12",         // TODO: Get from actual transaction
		"Flags":           0,            // TODO: Get from actual transaction
		"LastLedgerSequence": 1005,     // TODO: Get from actual transaction
		"Sequence":        1,            // TODO: Get from actual transaction
		"SigningPubKey":   "PUBLIC_KEY", // TODO: Get from actual transaction
		"TransactionType": "Payment",    // TODO: Get from actual transaction
		"TxnSignature":    "SIGNATURE",  // TODO: Get from actual transaction
		"hash":            request.Transaction,
		"inLedger":        1000,         // TODO: Get actual ledger index
		"ledger_index":    1000,         // TODO: Same as inLedger
		"meta": map[string]interface{}{
			"AffectedNodes": []interface{}{
				// TODO: Load actual transaction metadata
			},
			"TransactionIndex": 0, // TODO: Get actual index in ledger
			"TransactionResult": "tesSUCCESS", // TODO: Get actual result code
		},
		"validated": true, // TODO: Check if transaction is in validated ledger
	}
	
	return response, nil
}

func (m *TxMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *TxMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// TxHistoryMethod handles the tx_history RPC method
type TxHistoryMethod struct{}

func (m *TxHistoryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		Start uint32 `json:"start,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	// TODO: Implement transaction history
	// 1. Retrieve recent transactions from transaction database
	// 2. Start from specified ledger index (or most recent if not specified)
	// 3. Return transactions in reverse chronological order
	// 4. Limit results to reasonable number (e.g., 20 transactions)
	// 5. Include transaction details and ledger information
	
	response := map[string]interface{}{
		"index":       request.Start, // Starting ledger index
		"txs": map[string]interface{}{
			// TODO: Load actual transaction history
			// Structure should be map of ledger_index -> transaction_list
			// "1000": [
			//   {
			//     "Account": "rAccount...",
			//     "TransactionType": "Payment",
			//     ... transaction fields
			//   }
			// ]
		},
	}
	
	return response, nil
}

func (m *TxHistoryMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *TxHistoryMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// SubmitMethod handles the submit RPC method
type SubmitMethod struct{}

func (m *SubmitMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		TxBlob           string `json:"tx_blob,omitempty"`
		TxJson           json.RawMessage `json:"tx_json,omitempty"`
		Secret           string `json:"secret,omitempty"`
		Seed             string `json:"seed,omitempty"`
		SeedHex          string `json:"seed_hex,omitempty"`
		Passphrase       string `json:"passphrase,omitempty"`
		KeyType          string `json:"key_type,omitempty"`
		FailHard         bool   `json:"fail_hard,omitempty"`
		OfflineSign      bool   `json:"offline,omitempty"`
		BuildPath        bool   `json:"build_path,omitempty"`
		FeeMultMax       uint32 `json:"fee_mult_max,omitempty"`
		FeeDivMax        uint32 `json:"fee_div_max,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	// TODO: Implement transaction submission
	// Two modes of operation:
	// 1. Submit pre-signed transaction (tx_blob provided):
	//    - Decode hex blob to transaction object
	//    - Validate transaction format and signatures
	//    - Apply transaction to current ledger state
	//    - Add to transaction pool for consensus
	//    - Return immediate result or preliminary result
	//
	// 2. Sign and submit transaction (tx_json + credentials provided):
	//    - Parse transaction JSON
	//    - Fill in missing fields (Fee, Sequence, LastLedgerSequence)
	//    - Build payment paths if requested and transaction is Payment
	//    - Sign transaction using provided credentials
	//    - Submit signed transaction (same as mode 1)
	//
	// Security considerations:
	// - Never log or persist signing credentials
	// - Validate all transaction fields
	// - Check account authorization and balances
	// - Enforce fee limits and anti-spam measures
	// - Handle rate limiting per client IP
	
	if request.TxBlob == "" && len(request.TxJson) == 0 {
		return nil, RpcErrorInvalidParams("Either tx_blob or tx_json must be provided")
	}
	
	response := map[string]interface{}{
		"engine_result":         "tesSUCCESS", // TODO: Get actual submission result
		"engine_result_code":    0,            // TODO: Get numeric result code
		"engine_result_message": "The transaction was applied. Only final in a validated ledger.",
		"tx_blob":               request.TxBlob, // Echo back the blob (or generated blob)
		"tx_json": map[string]interface{}{
			// TODO: Return the processed transaction JSON
			"Account":         "rAccount...",
			"TransactionType": "Payment",
			"Sequence":        1,
			"Fee":             "12",
			"hash":            "TRANSACTION_HASH", // TODO: Calculate actual hash
		},
		"accepted":              true, // TODO: Determine if transaction was accepted
		"account_sequence_available": 2, // TODO: Get next available sequence
		"account_sequence_next":      2, // TODO: Get next sequence to use
		"applied":                   true, // TODO: Check if transaction was applied
		"broadcast":                 true, // TODO: Check if transaction was broadcast
		"kept":                      true, // TODO: Check if transaction was kept in pool
		"queued":                    false, // TODO: Check if transaction was queued
		"open_ledger_cost":          "10", // TODO: Get current open ledger cost
		"validated_ledger_index":    1000, // TODO: Get current validated ledger index
	}
	
	return response, nil
}

func (m *SubmitMethod) RequiredRole() Role {
	return RoleUser // Transaction submission requires user privileges
}

func (m *SubmitMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// SubmitMultisignedMethod handles the submit_multisigned RPC method
type SubmitMultisignedMethod struct{}

func (m *SubmitMultisignedMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		TxJson    json.RawMessage `json:"tx_json"`
		FailHard  bool           `json:"fail_hard,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	if len(request.TxJson) == 0 {
		return nil, RpcErrorInvalidParams("Missing required parameter: tx_json")
	}
	
	// TODO: Implement multisigned transaction submission
	// 1. Parse transaction JSON with multiple signatures
	// 2. Validate that account has SignerList configured
	// 3. Verify each signature against corresponding signer
	// 4. Check that enough valid signatures are provided (quorum)
	// 5. Submit transaction if signature validation passes
	// 6. Handle partial signature scenarios for debugging
	
	response := map[string]interface{}{
		"engine_result":         "tesSUCCESS", // TODO: Get actual result
		"engine_result_code":    0,
		"engine_result_message": "The transaction was applied. Only final in a validated ledger.",
		"tx_blob":               "GENERATED_BLOB", // TODO: Generate actual blob
		"tx_json": map[string]interface{}{
			// TODO: Return processed multisigned transaction
			"Signers": []interface{}{
				// TODO: Include actual signer information
			},
		},
		"accepted":   true,
		"applied":    true,
		"broadcast":  true,
		"kept":       true,
		"queued":     false,
		"validated_ledger_index": 1000,
	}
	
	return response, nil
}

func (m *SubmitMultisignedMethod) RequiredRole() Role {
	return RoleUser
}

func (m *SubmitMultisignedMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// SignMethod handles the sign RPC method
type SignMethod struct{}

func (m *SignMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		TxJson     json.RawMessage `json:"tx_json"`
		Secret     string          `json:"secret,omitempty"`
		Seed       string          `json:"seed,omitempty"`
		SeedHex    string          `json:"seed_hex,omitempty"`
		Passphrase string          `json:"passphrase,omitempty"`
		KeyType    string          `json:"key_type,omitempty"`
		Offline    bool            `json:"offline,omitempty"`
		BuildPath  bool            `json:"build_path,omitempty"`
		FeeMultMax uint32          `json:"fee_mult_max,omitempty"`
		FeeDivMax  uint32          `json:"fee_div_max,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	if len(request.TxJson) == 0 {
		return nil, RpcErrorInvalidParams("Missing required parameter: tx_json")
	}
	
	// Check for signing credentials
	if request.Secret == "" && request.Seed == "" && request.SeedHex == "" && request.Passphrase == "" {
		return nil, RpcErrorInvalidParams("Missing signing credentials")
	}
	
	// TODO: Implement transaction signing
	// 1. Parse transaction JSON
	// 2. Fill in missing fields (Fee, Sequence, LastLedgerSequence) if not offline
	// 3. Build payment paths if requested and transaction is Payment
	// 4. Derive signing key from provided credentials
	// 5. Sign transaction using appropriate algorithm (Ed25519 or secp256k1)
	// 6. Return signed transaction as both JSON and hex blob
	// 7. Do NOT submit transaction (sign-only operation)
	//
	// Security considerations:
	// - Never log or persist signing credentials
	// - Clear credentials from memory after use
	// - Use secure random number generation
	// - Validate key derivation parameters
	
	response := map[string]interface{}{
		"tx_blob": "SIGNED_TRANSACTION_HEX", // TODO: Generate actual signed blob
		"tx_json": map[string]interface{}{
			// TODO: Return signed transaction JSON
			"Account":        "rAccount...",
			"TransactionType": "Payment",
			"Sequence":       1,
			"Fee":           "12",
			"SigningPubKey": "PUBLIC_KEY", // TODO: Get actual public key
			"TxnSignature":  "SIGNATURE",  // TODO: Generate actual signature
			"hash":          "TX_HASH",    // TODO: Calculate transaction hash  
		},
	}
	
	return response, nil
}

func (m *SignMethod) RequiredRole() Role {
	return RoleUser // Signing requires user privileges
}

func (m *SignMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// SignForMethod handles the sign_for RPC method
type SignForMethod struct{}

func (m *SignForMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		Account    string          `json:"account"`
		TxJson     json.RawMessage `json:"tx_json"`
		Secret     string          `json:"secret,omitempty"`
		Seed       string          `json:"seed,omitempty"`
		SeedHex    string          `json:"seed_hex,omitempty"`
		Passphrase string          `json:"passphrase,omitempty"`
		KeyType    string          `json:"key_type,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	if request.Account == "" {
		return nil, RpcErrorInvalidParams("Missing required parameter: account")
	}
	
	if len(request.TxJson) == 0 {
		return nil, RpcErrorInvalidParams("Missing required parameter: tx_json")
	}
	
	// TODO: Implement multisigning
	// 1. Parse transaction JSON
	// 2. Verify that the specified account has SignerList configured
	// 3. Derive signing key from provided credentials  
	// 4. Verify that signing key corresponds to one of the authorized signers
	// 5. Create signature for the transaction on behalf of the account
	// 6. Return transaction with additional signature in Signers array
	// 7. Handle cases where transaction already has other signatures
	
	response := map[string]interface{}{
		"tx_blob": "MULTISIGNED_TRANSACTION_HEX", // TODO: Generate actual blob
		"tx_json": map[string]interface{}{
			// TODO: Return transaction with additional signature
			"Account": request.Account,
			"Signers": []interface{}{
				map[string]interface{}{
					"Signer": map[string]interface{}{
						"Account":       "rSigner...", // TODO: Get signer account
						"SigningPubKey": "PUBLIC_KEY", // TODO: Get signing public key
						"TxnSignature":  "SIGNATURE",  // TODO: Generate signature
					},
				},
			},
		},
	}
	
	return response, nil
}

func (m *SignForMethod) RequiredRole() Role {
	return RoleUser
}

func (m *SignForMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// TransactionEntryMethod handles the transaction_entry RPC method
type TransactionEntryMethod struct{}

func (m *TransactionEntryMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	var request struct {
		TxHash      string `json:"tx_hash"`
		LedgerHash  string `json:"ledger_hash,omitempty"`
		LedgerIndex string `json:"ledger_index,omitempty"`
	}
	
	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}
	
	if request.TxHash == "" {
		return nil, RpcErrorInvalidParams("Missing required parameter: tx_hash")
	}
	
	// TODO: Implement transaction entry lookup from specific ledger
	// 1. Determine target ledger (hash or index)
	// 2. Look up transaction in the specified ledger only
	// 3. Return transaction data with metadata from that specific ledger
	// 4. This is different from 'tx' method which searches across ledger range
	
	response := map[string]interface{}{
		"ledger_hash":  "PLACEHOLDER_LEDGER_HASH", // TODO: Use actual ledger hash
		"ledger_index": 1000, // TODO: Use actual ledger index
		"metadata": map[string]interface{}{
			"AffectedNodes":      []interface{}{}, // TODO: Load actual metadata
			"TransactionIndex":   0,
			"TransactionResult":  "tesSUCCESS",
		},
		"tx_json": map[string]interface{}{
			// TODO: Load actual transaction JSON
			"Account":         "rAccount...",
			"TransactionType": "Payment",
			"hash":           request.TxHash,
		},
		"validated": true,
	}
	
	return response, nil
}

func (m *TransactionEntryMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *TransactionEntryMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}