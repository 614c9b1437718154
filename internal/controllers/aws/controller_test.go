package aws_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	awsctl "github.com/isometry/ncm-webhook-relay/internal/controllers/aws"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

type fakeSSM struct {
	value *string
	err   error
}

func (f *fakeSSM) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.value == nil {
		return &ssm.GetParameterOutput{}, nil
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Name: params.Name, Value: f.value}}, nil
}

func newController(t *testing.T, s3c *fakeS3, ssmc *fakeSSM) *awsctl.Controller {
	t.Helper()
	ctl, err := awsctl.NewController(awsctl.WithS3Client(s3c), awsctl.WithSSMClient(ssmc))
	require.NoError(t, err)
	return ctl
}

func TestPutS3Object(t *testing.T) {
	s3c := &fakeS3{}
	ctl := newController(t, s3c, &fakeSSM{})

	key, err := ctl.PutS3Object(context.Background(), "archive", "abc", []byte(`{"order_id":"ORD1"}`))
	require.NoError(t, err)
	assert.Equal(t, "archive", *s3c.input.Bucket)
	assert.Equal(t, key, *s3c.input.Key)
	assert.Equal(t, "application/json", *s3c.input.ContentType)
	assert.Equal(t, `{"order_id":"ORD1"}`, string(s3c.body))
	assert.Contains(t, key, ".abc.json")
}

func TestPutS3ObjectErrors(t *testing.T) {
	testCases := []struct {
		Name   string
		Bucket string
		Err    error
	}{
		{Name: "missing_bucket"},
		{Name: "put_failure", Bucket: "archive", Err: errors.New("denied")},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctl := newController(t, &fakeS3{err: tc.Err}, &fakeSSM{})
			_, err := ctl.PutS3Object(context.Background(), tc.Bucket, "abc", nil)
			assert.Error(t, err)
		})
	}
}

func TestGetParameter(t *testing.T) {
	testCases := []struct {
		Name     string
		SSM      *fakeSSM
		Expected string
		WantErr  bool
	}{
		{Name: "value", SSM: &fakeSSM{value: helpers.Ptr("listener:\n  enabled: false\n")}, Expected: "listener:\n  enabled: false\n"},
		{Name: "missing_parameter", SSM: &fakeSSM{}, WantErr: true},
		{Name: "client_error", SSM: &fakeSSM{err: errors.New("throttled")}, WantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctl := newController(t, &fakeS3{}, tc.SSM)
			got, err := ctl.GetParameter(context.Background(), "/ncm/relay")
			if tc.WantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 8, time.FixedZone("NPT", 20700))
	assert.Equal(t, "2026-03-03/2026-03-03T23:21:07.000000008Z.abc.json", awsctl.ObjectKey(ts, "abc"))
}

func TestPayloadArchiver(t *testing.T) {
	s3c := &fakeS3{}
	arc := newController(t, s3c, &fakeSSM{}).NewPayloadArchiver("archive")

	require.NoError(t, arc.Archive(context.Background(), "webhook-1", []byte(`{}`)))
	assert.Equal(t, "archive", *s3c.input.Bucket)
	assert.Contains(t, *s3c.input.Key, "webhook-1")

	failing := newController(t, &fakeS3{err: errors.New("denied")}, &fakeSSM{}).NewPayloadArchiver("archive")
	assert.Error(t, failing.Archive(context.Background(), "webhook-2", []byte(`{}`)))
}
