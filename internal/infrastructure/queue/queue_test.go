package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/config"
	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/domain/entity"
	"github.com/oksasatya/social-account-service/pkg/mailer"
	"github.com/oksasatya/social-account-service/pkg/mailer/templates"
)

type fakePublisher struct {
	bodies [][]byte
	err    error
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	f.bodies = append(f.bodies, b)
	return nil
}

func TestMailer_SendVerification(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMailer(pub, &config.Config{AppName: "Social", EmailVerificationTimeout: time.Minute, ExternalCallTimeout: time.Second})
	ctx := application.WithClientIP(context.Background(), "10.0.0.1")

	require.NoError(t, m.SendVerification(ctx, application.MailResetPassword, "a@b.co", "http://app/reset?x=1"))
	require.Len(t, pub.bodies, 1)

	var job mailer.EmailJob
	require.NoError(t, json.Unmarshal(pub.bodies[0], &job))
	assert.Equal(t, "a@b.co", job.To)
	assert.Equal(t, templates.ResetPassword, job.Template)
	assert.Equal(t, "http://app/reset?x=1", job.Data["ActionURL"])
	assert.Equal(t, "10.0.0.1", job.Data["IP"])

	assert.Error(t, m.SendVerification(ctx, application.MailKind("other"), "a@b.co", "x"))
}

func TestMailer_SendReAgreement(t *testing.T) {
	pub := &fakePublisher{}
	m := NewMailer(pub, &config.Config{})
	require.NoError(t, m.SendReAgreement(context.Background(), "a@b.co",
		&entity.Agreement{Title: "개인정보 처리방침", Version: "2.0", Type: entity.AgreementPrivacy}))

	var job mailer.EmailJob
	require.NoError(t, json.Unmarshal(pub.bodies[0], &job))
	assert.Equal(t, templates.ReAgreement, job.Template)
	assert.Equal(t, "2.0", job.Data["AgreementVersion"])
}

func TestTaskQueue_EnqueueAndDispatch(t *testing.T) {
	pub := &fakePublisher{}
	q := NewTaskQueue(pub)
	type args struct {
		PreviousID int64 `json:"previous_id"`
		NewID      int64 `json:"new_id"`
	}
	require.NoError(t, q.Enqueue(context.Background(), "notify_re_agreement", args{1, 2}))
	require.Len(t, pub.bodies, 1)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(pub.bodies[0], &raw))
	assert.Equal(t, "notify_re_agreement", raw["name"])
	assert.Contains(t, raw, "enqueued_at")

	d := NewDispatcher()
	var got args
	d.Handle("notify_re_agreement", func(_ context.Context, a json.RawMessage) error {
		return json.Unmarshal(a, &got)
	})
	require.NoError(t, d.Dispatch(context.Background(), pub.bodies[0]))
	assert.Equal(t, args{1, 2}, got)

	err := d.Dispatch(context.Background(), []byte(`{"name":"nope","args":{}}`))
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestTaskQueue_PublishError(t *testing.T) {
	boom := errors.New("broker down")
	q := NewTaskQueue(&fakePublisher{err: boom})
	err := q.Enqueue(context.Background(), "x", map[string]int{})
	assert.ErrorIs(t, err, boom)
}
