package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptModelOnly(t *testing.T) {
	var got fakeMsg
	h, err := Adapt[*fakeBot, fakeMsg](func(_ context.Context, m fakeMsg) error {
		got = m
		return nil
	})
	require.NoError(t, err)

	c := testCtx()
	require.NoError(t, h(context.Background(), c))
	assert.Equal(t, c.Model, got)
}

func TestAdaptInteractionOnly(t *testing.T) {
	var got *fakeBot
	h, err := Adapt[*fakeBot, fakeMsg](func(_ context.Context, b *fakeBot) error {
		got = b
		return nil
	})
	require.NoError(t, err)

	c := testCtx()
	require.NoError(t, h(context.Background(), c))
	assert.Same(t, c.Interaction, got)
}

func TestAdaptContextIdentity(t *testing.T) {
	var got *Context[*fakeBot, fakeMsg]
	h, err := Adapt[*fakeBot, fakeMsg](func(_ context.Context, c *Context[*fakeBot, fakeMsg]) error {
		got = c
		return nil
	})
	require.NoError(t, err)

	c := testCtx()
	require.NoError(t, h(context.Background(), c))
	assert.Same(t, c, got, "identity shape must receive the context unchanged")
}

func TestAdaptInteractionModel(t *testing.T) {
	var gotBot *fakeBot
	var gotMsg fakeMsg
	h, err := Adapt[*fakeBot, fakeMsg](func(_ context.Context, b *fakeBot, m fakeMsg) error {
		gotBot, gotMsg = b, m
		return nil
	})
	require.NoError(t, err)

	c := testCtx()
	require.NoError(t, h(context.Background(), c))
	assert.Same(t, c.Interaction, gotBot)
	assert.Equal(t, c.Model, gotMsg)
}

func TestAdaptModelInteraction(t *testing.T) {
	var gotBot *fakeBot
	var gotMsg fakeMsg
	h, err := Adapt[*fakeBot, fakeMsg](func(_ context.Context, m fakeMsg, b *fakeBot) error {
		gotBot, gotMsg = b, m
		return nil
	})
	require.NoError(t, err)

	c := testCtx()
	require.NoError(t, h(context.Background(), c))
	assert.Same(t, c.Interaction, gotBot)
	assert.Equal(t, c.Model, gotMsg)
}

func TestAdaptCanonicalHandler(t *testing.T) {
	called := false
	var h Handler[*fakeBot, fakeMsg] = func(context.Context, *Context[*fakeBot, fakeMsg]) error {
		called = true
		return nil
	}
	adapted, err := Adapt[*fakeBot, fakeMsg](h)
	require.NoError(t, err)
	require.NoError(t, adapted(context.Background(), testCtx()))
	assert.True(t, called)
}

func TestAdaptRejectsUnsupportedShapes(t *testing.T) {
	tests := []struct {
		name     string
		callback any
	}{
		{"no arguments", func() error { return nil }},
		{"missing ctx", func(fakeMsg) error { return nil }},
		{"three payload arguments", func(_ context.Context, _ fakeMsg, _ *fakeBot, _ string) error { return nil }},
		{"no error return", func(_ context.Context, _ fakeMsg) {}},
		{"two non-interaction parameters", func(_ context.Context, _ string, _ int) error { return nil }},
		{"not a function", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Adapt[*fakeBot, fakeMsg](tt.callback)
			assert.Nil(t, h)

			var regErr *RegistrationError
			require.ErrorAs(t, err, &regErr)
			assert.Contains(t, regErr.Error(), "accepted shapes")
		})
	}
}

func TestAdaptRejectsAmbiguousRoles(t *testing.T) {
	// When interaction and model are the same type, neither the single
	// payload argument nor the argument order can be classified.
	type both = fakeMsg

	t.Run("single argument", func(t *testing.T) {
		_, err := Adapt[both, both](func(_ context.Context, _ both) error { return nil })
		var regErr *RegistrationError
		require.ErrorAs(t, err, &regErr)
	})

	t.Run("two arguments", func(t *testing.T) {
		_, err := Adapt[both, both](func(_ context.Context, _ both, _ both) error { return nil })
		var regErr *RegistrationError
		require.ErrorAs(t, err, &regErr)
	})

	// The identity shape stays unambiguous regardless.
	t.Run("context shape still accepted", func(t *testing.T) {
		_, err := Adapt[both, both](func(_ context.Context, _ *Context[both, both]) error { return nil })
		require.NoError(t, err)
	})
}

func TestTypedConstructors(t *testing.T) {
	c := testCtx()

	var gotMsg fakeMsg
	require.NoError(t, OnModel[*fakeBot](func(_ context.Context, m fakeMsg) error {
		gotMsg = m
		return nil
	})(context.Background(), c))
	assert.Equal(t, c.Model, gotMsg)

	var gotBot *fakeBot
	require.NoError(t, OnInteraction[*fakeBot, fakeMsg](func(_ context.Context, b *fakeBot) error {
		gotBot = b
		return nil
	})(context.Background(), c))
	assert.Same(t, c.Interaction, gotBot)

	sentinel := errors.New("handler error")
	err := OnInteractionModel(func(_ context.Context, _ *fakeBot, _ fakeMsg) error {
		return sentinel
	})(context.Background(), c)
	assert.ErrorIs(t, err, sentinel, "handler errors pass through unchanged")

	require.NoError(t, OnModelInteraction(func(_ context.Context, m fakeMsg, b *fakeBot) error {
		gotMsg, gotBot = m, b
		return nil
	})(context.Background(), c))
	assert.Equal(t, c.Model, gotMsg)
	assert.Same(t, c.Interaction, gotBot)
}
