package shadercache_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelengine/assetpipe/internal/adapters/gfxstub"
	"github.com/kestrelengine/assetpipe/internal/adapters/shadercache"
)

func TestCache_FindMiss(t *testing.T) {
	c := shadercache.New(gfxstub.NewFakeDriver())
	_, ok := c.Find("nope")
	assert.False(t, ok)
}

func TestCache_CacheThenFindReturnsSameModule(t *testing.T) {
	c := shadercache.New(gfxstub.NewFakeDriver())
	driver := gfxstub.NewFakeDriver()
	mod, err := driver.CreateModule("prog", map[string][]byte{"vertex": []byte("vbc")})
	require.NoError(t, err)

	c.Cache("key1", "prog", mod)

	got, ok := c.Find("key1")
	require.True(t, ok)
	assert.Equal(t, mod, got)
}

func TestCache_RoundTrip(t *testing.T) {
	// Arrange
	driver := gfxstub.NewFakeDriver()
	c := shadercache.New(driver)
	mod, err := driver.CreateModule("prog", map[string][]byte{
		"vertex":   []byte("vbc"),
		"fragment": []byte("fbc"),
	})
	require.NoError(t, err)
	c.Cache("key1", "prog", mod)

	originalBytecode, err := mod.Bytecode()
	require.NoError(t, err)

	// Act: save, then load into a fresh cache with a fresh driver.
	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	fresh := shadercache.New(gfxstub.NewFakeDriver())
	require.NoError(t, fresh.Load(&buf))

	gotModule, ok := fresh.Find("key1")
	require.True(t, ok)
	gotBytecode, err := gotModule.Bytecode()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, originalBytecode, gotBytecode)
}

func TestCache_Clear(t *testing.T) {
	driver := gfxstub.NewFakeDriver()
	c := shadercache.New(driver)
	mod, _ := driver.CreateModule("prog", map[string][]byte{"vertex": []byte("x")})
	c.Cache("key1", "prog", mod)

	c.Clear()

	_, ok := c.Find("key1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Info().Entries)
}

func TestCache_SaveDropsEntriesWithoutBytecode(t *testing.T) {
	c := shadercache.New(gfxstub.NewFakeDriver())
	c.Cache("key1", "prog", brokenModule{})

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))
	assert.Equal(t, 0, c.Info().Entries)
}

type brokenModule struct{}

func (brokenModule) Name() string             { return "broken" }
func (brokenModule) Bytecode() ([]byte, error) { return nil, assertErr }

var assertErr = errBytecode{}

type errBytecode struct{}

func (errBytecode) Error() string { return "no bytecode available" }
