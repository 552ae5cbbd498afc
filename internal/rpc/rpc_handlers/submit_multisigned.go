package rpc_handlers

import (
	"encoding/json"

	"github.com/xrplgo/goxrpld/internal/rpc/rpc_types"
)

// SubmitMultisignedMethod handles the submit_multisigned RPC method
type SubmitMultisignedMethod struct{}

func (m *SubmitMultisignedMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		TxJson   json.RawMessage `json:"tx_json"`
		FailHard bool            `json:"fail_hard,omitempty"`
	}

	if params != nil {
		if err := json.Unmarshal(params, &request); err != nil {
			return nil, rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
		}
	}

	if len(request.TxJson) == 0 {
		return nil, rpc_types.RpcErrorInvalidParams("Missing required parameter: tx_json")
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
		"accepted":              true,
		"applied":               true,
		"broadcast":             true,
		"kept":                  true,
		"queued":                false,
		"validated_ledger_index": 1000,
	}

	return response, nil
}

func (m *SubmitMultisignedMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleUser
}

func (m *SubmitMultisignedMethod) SupportedApiVersions() []int {
	return []int{rpc_types.ApiVersion1, rpc_types.ApiVersion2, rpc_types.ApiVersion3}
}
