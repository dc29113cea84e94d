package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName_RoundTrip(t *testing.T) {
	raw, err := EncodeName("EquipParamWeapon")
	require.NoError(t, err)
	require.Len(t, raw, 2*len("EquipParamWeapon"))
	require.Equal(t, byte('E'), raw[0])
	require.Equal(t, byte(0), raw[1])

	name, err := DecodeName(raw)
	require.NoError(t, err)
	require.Equal(t, "EquipParamWeapon", name)
}

func TestDecodeName_StopsAtTerminator(t *testing.T) {
	raw, err := EncodeName("Bullet")
	require.NoError(t, err)
	raw = append(raw, 0, 0, 'X', 0)

	name, err := DecodeName(raw)
	require.NoError(t, err)
	require.Equal(t, "Bullet", name)
}

func TestDecodeName_OddLength(t *testing.T) {
	_, err := DecodeName([]byte{'A', 0, 'B'})
	require.True(t, errors.Is(err, ErrBadName))
}

func TestReadType(t *testing.T) {
	b := make([]byte, 0x20)
	copy(b[0x10:], "SP_EFFECT_ST\x00")

	typ, err := ReadType(b, 0x10)
	require.NoError(t, err)
	require.Equal(t, "SP_EFFECT_ST", typ)

	_, err = ReadType(b, len(b))
	require.ErrorIs(t, err, ErrTruncated)

	full := []byte("NOTERMINATOR")
	_, err = ReadType(full, 0)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestEncoding_LittleEndian(t *testing.T) {
	b := make([]byte, 16)
	PutU16(b, NumRowsOffset, 0x0102)
	require.Equal(t, byte(0x02), b[NumRowsOffset])
	require.Equal(t, uint16(0x0102), ReadU16(b, NumRowsOffset))

	PutU64(b, 0, 0x1122334455667788)
	require.Equal(t, byte(0x88), b[0])
	require.Equal(t, uint64(0x1122334455667788), ReadU64(b, 0))
	require.Equal(t, RowInfoOffset+2*RowInfoSize, RowInfoAt(2))
}
