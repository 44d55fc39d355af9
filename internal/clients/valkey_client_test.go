package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
	"github.com/valkey-io/valkey-go/mock"
	"go.uber.org/mock/gomock"
)

func TestDoWithRetryRebuildsCommandEachAttempt(t *testing.T) {
	mc := mock.NewClient(gomock.NewController(t))
	vc := NewValkeyClient(mc)

	gomock.InOrder(
		mc.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).Return(mock.ErrorResult(errors.New("LOADING"))),
		mc.EXPECT().Do(gomock.Any(), mock.Match("GET", "k")).Return(mock.Result(mock.ValkeyString("v"))),
	)

	builds := 0
	res := vc.DoWithRetry(context.Background(), func(c valkey.Client) valkey.Completed {
		builds++
		return c.B().Get().Key("k").Build()
	}, 3)

	v, err := res.ToString()
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, 2, builds)
}

func TestDoWithRetryTreatsNilAsSuccess(t *testing.T) {
	mc := mock.NewClient(gomock.NewController(t))
	vc := NewValkeyClient(mc)
	mc.EXPECT().Do(gomock.Any(), mock.Match("GET", "missing")).Return(mock.Result(mock.ValkeyNil())).Times(1)

	res := vc.DoWithRetry(context.Background(), func(c valkey.Client) valkey.Completed {
		return c.B().Get().Key("missing").Build()
	}, 3)
	assert.True(t, valkey.IsValkeyNil(res.Error()))
}

func TestSeenSet(t *testing.T) {
	mc := mock.NewClient(gomock.NewController(t))
	vc := NewValkeyClient(mc)

	mc.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("SADD", "moodscope:seen:reddit", "abc"),
			mock.Match("EXPIRE", "moodscope:seen:reddit", "86400")).
		Return([]valkey.ValkeyResult{
			mock.Result(mock.ValkeyInt64(1)),
			mock.Result(mock.ValkeyInt64(1)),
		})
	require.NoError(t, vc.MarkProcessed(context.Background(), "reddit", "abc"))

	mc.EXPECT().
		Do(gomock.Any(), mock.Match("SISMEMBER", "moodscope:seen:reddit", "abc")).
		Return(mock.Result(mock.ValkeyInt64(1)))
	assert.True(t, vc.IsPostProcessed(context.Background(), "reddit", "abc"))

	mc.EXPECT().
		Do(gomock.Any(), mock.Match("SISMEMBER", "moodscope:seen:reddit", "zzz")).
		Return(mock.Result(mock.ValkeyInt64(0)))
	assert.False(t, vc.IsPostProcessed(context.Background(), "reddit", "zzz"))
}

func TestPing(t *testing.T) {
	mc := mock.NewClient(gomock.NewController(t))
	vc := NewValkeyClient(mc)

	mc.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.ValkeyString("PONG")))
	assert.True(t, vc.Ping(context.Background()))

	mc.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(errors.New("down")))
	assert.False(t, vc.Ping(context.Background()))
}
