package backup

import (
	"context"
	"errors"
	"io"
	"testing"

	"aaronromeo.com/sievefilters/ftest"
	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/mock"
	"aaronromeo.com/sievefilters/pkg/testutil"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploaded struct {
	bucket      string
	body        string
	contentType string
	active      string
}

// fakeUploader records uploads keyed by object key.
type fakeUploader struct {
	s3manageriface.UploaderAPI

	UploadFunc func(input *s3manager.UploadInput) error
	Uploads    map[string]uploaded
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{Uploads: map[string]uploaded{}}
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, input *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.UploadFunc != nil {
		if err := f.UploadFunc(input); err != nil {
			return nil, err
		}
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.Uploads[aws.StringValue(input.Key)] = uploaded{
		bucket:      aws.StringValue(input.Bucket),
		body:        string(body),
		contentType: aws.StringValue(input.ContentType),
		active:      aws.StringValue(input.Metadata[MetadataActive]),
	}
	return &s3manager.UploadOutput{Location: aws.StringValue(input.Key)}, nil
}

func TestRun(t *testing.T) {
	repo := testutil.NewMockFiltersSetRepository(map[string]string{
		"main_script":   ftest.SampleScript,
		"second_script": "# empty\n",
	}, "main_script")
	uploader := newFakeUploader()

	runner, err := New(
		WithRepository(repo),
		WithUploader(uploader),
		WithBucket("backups"),
		WithPrefix("sievefilters"),
		WithAccount(ftest.DefaultUser),
		WithLogger(mock.SetupLogger(t)),
	)
	require.NoError(t, err)

	objects, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Object{
		{Key: "sievefilters/user@test.com/main_script.sieve", Active: true, Size: len(ftest.SampleScript)},
		{Key: "sievefilters/user@test.com/second_script.sieve", Active: false, Size: len("# empty\n")},
	}, objects)

	main := uploader.Uploads["sievefilters/user@test.com/main_script.sieve"]
	assert.Equal(t, "backups", main.bucket)
	assert.Equal(t, ftest.SampleScript, main.body)
	assert.Equal(t, ContentType, main.contentType)
	assert.Equal(t, "true", main.active)
	assert.Equal(t, "false", uploader.Uploads["sievefilters/user@test.com/second_script.sieve"].active)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name          string
		listErr       error
		uploadErr     error
		expectedError string
		expectedCount int
	}{
		{
			name:          "listing fails",
			listErr:       errors.New("connection reset"),
			expectedError: "listing filters sets",
		},
		{
			name:          "upload fails",
			uploadErr:     errors.New("access denied"),
			expectedError: "uploading sievefilters/user@test.com/main_script.sieve",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := testutil.NewMockFiltersSetRepository(ftest.SampleScripts(), "")
			if tt.listErr != nil {
				repo.ListFunc = func(context.Context) ([]base.ScriptInfo, error) {
					return nil, tt.listErr
				}
			}
			uploader := newFakeUploader()
			if tt.uploadErr != nil {
				uploader.UploadFunc = func(*s3manager.UploadInput) error {
					return tt.uploadErr
				}
			}

			runner, err := New(
				WithRepository(repo),
				WithUploader(uploader),
				WithBucket("backups"),
				WithPrefix("sievefilters"),
				WithAccount(ftest.DefaultUser),
				WithLogger(mock.SetupLogger(t)),
			)
			require.NoError(t, err)

			objects, err := runner.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Len(t, objects, tt.expectedCount)
		})
	}
}

func TestNewRequiresDeps(t *testing.T) {
	logger := mock.SetupLogger(t)
	repo := testutil.NewMockFiltersSetRepository(nil, "")

	tests := []struct {
		name          string
		opts          []Option
		expectedError string
	}{
		{"no repository", []Option{WithUploader(newFakeUploader()), WithBucket("b"), WithAccount("a"), WithLogger(logger)}, "repository"},
		{"no uploader", []Option{WithRepository(repo), WithBucket("b"), WithAccount("a"), WithLogger(logger)}, "uploader"},
		{"no bucket", []Option{WithRepository(repo), WithUploader(newFakeUploader()), WithAccount("a"), WithLogger(logger)}, "bucket"},
		{"no account", []Option{WithRepository(repo), WithUploader(newFakeUploader()), WithBucket("b"), WithLogger(logger)}, "account"},
		{"no logger", []Option{WithRepository(repo), WithUploader(newFakeUploader()), WithBucket("b"), WithAccount("a")}, "logger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "user@test.com/main.sieve", Key("", "user@test.com", "main"))
	assert.Equal(t, "backups/sieve/user@test.com/main.sieve", Key("backups/sieve", "user@test.com", "main"))
}

func TestNewUploader(t *testing.T) {
	uploader, err := NewUploader(config.S3Env{
		Endpoint: "https://nyc3.digitaloceanspaces.com",
		Region:   "us-east-1",
		Bucket:   "backups",
		Key:      "key",
		Secret:   "secret",
	}, true)
	require.NoError(t, err)

	u, ok := uploader.(*s3manager.Uploader)
	require.True(t, ok)
	client, ok := u.S3.(*s3.S3)
	require.True(t, ok)
	assert.Equal(t, "https://nyc3.digitaloceanspaces.com", client.Endpoint)
	assert.True(t, aws.BoolValue(client.Config.S3ForcePathStyle))
}
