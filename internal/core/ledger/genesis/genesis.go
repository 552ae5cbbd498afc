package genesis

import (
	"encoding/binary"

	crypto "github.com/xrplgo/goxrpld/internal/crypto/common"
	"github.com/xrplgo/goxrpld/internal/protocol"
)

// LedgerInfo carries the header fields that feed the ledger hash.
type LedgerInfo struct {
	Seq                 uint32
	Drops               uint64
	ParentHash          [32]byte
	TxHash              [32]byte
	AccountHash         [32]byte
	ParentCloseTime     uint32
	CloseTime           uint32
	CloseTimeResolution uint8
	CloseFlags          uint8
}

// CalculateLedgerHash hashes a ledger header the way rippled does: the
// ledger-master prefix followed by the header fields in wire order.
func CalculateLedgerHash(info LedgerInfo) [32]byte {
	buf := make([]byte, 0, 4+4+8+32+32+32+4+4+1+1)
	buf = append(buf, protocol.HashPrefixLedgerMaster[:]...)
	buf = binary.BigEndian.AppendUint32(buf, info.Seq)
	buf = binary.BigEndian.AppendUint64(buf, info.Drops)
	buf = append(buf, info.ParentHash[:]...)
	buf = append(buf, info.TxHash[:]...)
	buf = append(buf, info.AccountHash[:]...)
	buf = binary.BigEndian.AppendUint32(buf, info.ParentCloseTime)
	buf = binary.BigEndian.AppendUint32(buf, info.CloseTime)
	buf = append(buf, info.CloseTimeResolution, info.CloseFlags)
	return crypto.Sha512Half(buf)
}
