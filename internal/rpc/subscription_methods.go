package rpc

import (
	"encoding/json"
)

// SubscribeMethod handles the subscribe RPC command (WebSocket only)
type SubscribeMethod struct{}

func (m *SubscribeMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// This method should only be called through WebSocket context
	// The actual implementation is in the WebSocket handler
	return nil, NewRpcError(RpcNOT_SUPPORTED, "notSupported", "notSupported",
		"subscribe is only available via WebSocket")
}

func (m *SubscribeMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *SubscribeMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// UnsubscribeMethod handles the unsubscribe RPC command (WebSocket only)
type UnsubscribeMethod struct{}

func (m *UnsubscribeMethod) Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError) {
	// This method should only be called through WebSocket context
	// The actual implementation is in the WebSocket handler
	return nil, NewRpcError(RpcNOT_SUPPORTED, "notSupported", "notSupported",
		"unsubscribe is only available via WebSocket")
}

func (m *UnsubscribeMethod) RequiredRole() Role {
	return RoleGuest
}

func (m *UnsubscribeMethod) SupportedApiVersions() []int {
	return []int{ApiVersion1, ApiVersion2, ApiVersion3}
}

// WebSocket-specific subscription handling

// Connection represents a WebSocket connection with subscription state
type Connection struct {
	ID           string
	Subscriptions map[SubscriptionType]SubscriptionConfig
	SendChannel  chan []byte
	CloseChannel chan struct{}
}

// SubscriptionConfig holds configuration for a specific subscription
type SubscriptionConfig struct {
	Type      SubscriptionType
	Accounts  []string
	Books     []BookRequest
	Streams   []SubscriptionType
	URL       string
	Username  string
	Password  string
}

// SubscriptionManager handles WebSocket subscriptions
type SubscriptionManager struct {
	connections map[string]*Connection
	// TODO: Add synchronization primitives (mutex)
}

// HandleSubscribe processes WebSocket subscribe commands
func (sm *SubscriptionManager) HandleSubscribe(conn *Connection, request SubscriptionRequest) *RpcError {
	// TODO: Implement subscription handling
	// 1. Validate subscription parameters
	// 2. Add subscription to connection state
	// 3. Send initial state if required (e.g., ledger snapshot)
	// 4. Register connection for future updates
	//
	// Supported subscription types:
	// - ledger: Ledger close notifications
	// - transactions: All transaction activity
	// - accounts: Activity for specific accounts
	// - book_changes: Order book changes
	// - validations: Validation messages
	// - manifests: Validator manifests
	// - peer_status: Peer connection status
	// - consensus: Consensus phase changes
	// - path_find: Path finding results (special handling)
	
	// Process stream subscriptions
	for _, stream := range request.Streams {
		switch stream {
		case SubLedger:
			// TODO: Subscribe to ledger close events
			conn.Subscriptions[SubLedger] = SubscriptionConfig{
				Type: SubLedger,
			}
			
		case SubTransactions:
			// TODO: Subscribe to all transaction events
			conn.Subscriptions[SubTransactions] = SubscriptionConfig{
				Type: SubTransactions,
			}
			
		case SubValidations:
			// TODO: Subscribe to validation events
			conn.Subscriptions[SubValidations] = SubscriptionConfig{
				Type: SubValidations,
			}
			
		case SubManifests:
			// TODO: Subscribe to manifest updates
			conn.Subscriptions[SubManifests] = SubscriptionConfig{
				Type: SubManifests,
			}
			
		case SubPeerStatus:
			// TODO: Subscribe to peer status changes
			conn.Subscriptions[SubPeerStatus] = SubscriptionConfig{
				Type: SubPeerStatus,
			}
			
		case SubConsensus:
			// TODO: Subscribe to consensus phase changes
			conn.Subscriptions[SubConsensus] = SubscriptionConfig{
				Type: SubConsensus,
			}
			
		default:
			return RpcErrorInvalidParams("Unknown stream type: " + string(stream))
		}
	}
	
	// Process account subscriptions
	if len(request.Accounts) > 0 {
		// TODO: Validate account addresses
		// TODO: Subscribe to account-specific events
		conn.Subscriptions[SubAccounts] = SubscriptionConfig{
			Type:     SubAccounts,
			Accounts: request.Accounts,
		}
	}
	
	// Process order book subscriptions
	if len(request.Books) > 0 {
		// TODO: Validate currency pairs
		// TODO: Subscribe to order book changes
		// TODO: Send initial snapshots if requested
		conn.Subscriptions[SubOrderBooks] = SubscriptionConfig{
			Type:  SubOrderBooks,
			Books: request.Books,
		}
	}
	
	return nil
}

// HandleUnsubscribe processes WebSocket unsubscribe commands
func (sm *SubscriptionManager) HandleUnsubscribe(conn *Connection, request SubscriptionRequest) *RpcError {
	// TODO: Implement unsubscription handling
	// 1. Remove specified subscriptions from connection
	// 2. Clean up resources
	// 3. Stop sending updates for unsubscribed streams
	
	// Remove stream subscriptions
	for _, stream := range request.Streams {
		delete(conn.Subscriptions, stream)
	}
	
	// Remove account subscriptions if accounts list provided
	if len(request.Accounts) > 0 {
		if config, exists := conn.Subscriptions[SubAccounts]; exists {
			// TODO: Remove specific accounts from subscription
			// For now, remove entire account subscription
			_ = config
			delete(conn.Subscriptions, SubAccounts)
		}
	}
	
	// Remove book subscriptions if books list provided
	if len(request.Books) > 0 {
		if config, exists := conn.Subscriptions[SubOrderBooks]; exists {
			// TODO: Remove specific books from subscription
			// For now, remove entire book subscription
			_ = config
			delete(conn.Subscriptions, SubOrderBooks)
		}
	}
	
	return nil
}

// BroadcastMessage sends a message to all subscribed connections
func (sm *SubscriptionManager) BroadcastMessage(msgType SubscriptionType, message StreamMessage) {
	// TODO: Implement message broadcasting
	// 1. Find all connections subscribed to the message type
	// 2. Filter based on subscription criteria (accounts, books, etc.)
	// 3. Send message to matching connections
	// 4. Handle connection errors and cleanup
	
	for _, conn := range sm.connections {
		if _, subscribed := conn.Subscriptions[msgType]; subscribed {
			// TODO: Apply filters based on subscription config
			// TODO: Send message to connection
			select {
			case conn.SendChannel <- []byte{}:  // TODO: Marshal actual message
				// Message sent successfully
			case <-conn.CloseChannel:
				// Connection is closed, clean up
				sm.removeConnection(conn.ID)
			default:
				// Channel is full, connection may be slow
				// TODO: Consider closing slow connections
			}
		}
	}
}

// AddConnection adds a new WebSocket connection
func (sm *SubscriptionManager) AddConnection(conn *Connection) {
	// TODO: Add proper synchronization
	sm.connections[conn.ID] = conn
}

// RemoveConnection removes a WebSocket connection
func (sm *SubscriptionManager) RemoveConnection(connID string) {
	sm.removeConnection(connID)
}

func (sm *SubscriptionManager) removeConnection(connID string) {
	// TODO: Add proper synchronization
	if conn, exists := sm.connections[connID]; exists {
		close(conn.CloseChannel)
		delete(sm.connections, connID)
	}
}

// Event types for subscription system

// LedgerCloseEvent represents a ledger close notification
type LedgerCloseEvent struct {
	Type           string `json:"type"`
	LedgerIndex    uint32 `json:"ledger_index"`
	LedgerHash     string `json:"ledger_hash"`
	LedgerTime     uint32 `json:"ledger_time"`
	FeeBase        uint32 `json:"fee_base"`
	FeeRef         uint32 `json:"fee_ref"`
	ReserveBase    uint32 `json:"reserve_base"`
	ReserveInc     uint32 `json:"reserve_inc"`
	TxnCount       uint32 `json:"txn_count"`
	ValidatedLedgers string `json:"validated_ledgers"`
}

// TransactionEvent represents a transaction notification
type TransactionEvent struct {
	Type        string          `json:"type"`
	Engine      string          `json:"engine"`
	LedgerIndex uint32          `json:"ledger_index"`
	LedgerHash  string          `json:"ledger_hash"`
	LedgerTime  uint32          `json:"ledger_time"`
	Transaction json.RawMessage `json:"transaction"`
	Meta        json.RawMessage `json:"meta"`
	Validated   bool            `json:"validated"`
}

// ValidationEvent represents a validation message
type ValidationEvent struct {
	Type             string `json:"type"`
	Amendment        string `json:"amendment,omitempty"`
	Base             uint64 `json:"base,omitempty"`
	Flags            uint32 `json:"flags"`
	Full             bool   `json:"full"`
	LedgerHash       string `json:"ledger_hash"`
	LedgerIndex      string `json:"ledger_index"`
	LoadFee          uint32 `json:"load_fee,omitempty"`
	MasterKey        string `json:"master_key,omitempty"`
	Reserve          uint64 `json:"reserve,omitempty"`
	Signature        string `json:"signature"`
	SigningTime      uint32 `json:"signing_time"`
	ValidationPublicKey string `json:"validation_public_key"`
}

// ManifestEvent represents a validator manifest update
type ManifestEvent struct {
	Type     string `json:"type"`
	Manifest string `json:"manifest"`
	MasterKey string `json:"master_key"`
	SigningKey string `json:"signing_key"`
}

// PeerStatusEvent represents peer connection status changes
type PeerStatusEvent struct {
	Type   string `json:"type"`
	Action string `json:"action"` // "CLOSING_LEDGER", "ACCEPTED_LEDGER", etc.
	Date   uint32 `json:"date"`
	LedgerHash string `json:"ledger_hash,omitempty"`
	LedgerIndex uint32 `json:"ledger_index,omitempty"`
	LedgerIndexMax uint32 `json:"ledger_index_max,omitempty"`
	LedgerIndexMin uint32 `json:"ledger_index_min,omitempty"`
}

// ConsensusEvent represents consensus phase changes
type ConsensusEvent struct {
	Type string `json:"type"`
	// TODO: Add consensus-specific fields based on rippled implementation
}

// PathFindEvent represents path finding results (special case)
type PathFindEvent struct {
	Type        string `json:"type"`
	ID          interface{} `json:"id,omitempty"`
	Status      string `json:"status,omitempty"`
	Alternatives []interface{} `json:"alternatives,omitempty"`
	// TODO: Add complete path finding result structure
}