package voltdb

import "github.com/YuRHere/voltdb/wiretype"

// Wire-type tags, re-exported from wiretype for callers who only need the
// top-level package.
const (
	TagNull          = wiretype.Null
	TagTinyInt       = wiretype.TinyInt
	TagSmallInt      = wiretype.SmallInt
	TagInteger       = wiretype.Integer
	TagBigInt        = wiretype.BigInt
	TagFloat         = wiretype.Float
	TagString        = wiretype.String
	TagTimestamp     = wiretype.Timestamp
	TagMoney         = wiretype.Money
	TagVoltTable     = wiretype.VoltTable
	TagDecimal       = wiretype.Decimal
	TagDecimalString = wiretype.DecimalString

	// Array is the pseudo-tag marking a tagged-array parameter.
	Array = wiretype.Array
)

// Observable constants, exposed verbatim per the external-interface
// contract.
const (
	NullStringIndicator = wiretype.NullStringIndicator
	DefaultDecimalScale = wiretype.DefaultDecimalScale
)

// NullDecimalIndicator is the 16-byte DECIMAL NULL sentinel.
var NullDecimalIndicator = wiretype.NullDecimalIndicator
