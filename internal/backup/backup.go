// Package backup copies every filters set of an account to S3-compatible
// object storage.
package backup

import (
	"context"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"aaronromeo.com/sievefilters/internal/config"
	"aaronromeo.com/sievefilters/pkg/repositories"
	"aaronromeo.com/sievefilters/pkg/utils"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/pkg/errors"
)

const (
	ScriptExtension = ".sieve"
	ContentType     = "application/sieve"
	MetadataActive  = "Active"
)

// Object describes one uploaded script.
type Object struct {
	Key    string
	Active bool
	Size   int
}

type Option func(*Runner)

// Runner uploads the scripts of one account.
type Runner struct {
	repo     repositories.FiltersSetRepository
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
	account  string
	logger   *slog.Logger
}

func WithRepository(repo repositories.FiltersSetRepository) Option {
	return func(r *Runner) {
		r.repo = repo
	}
}

func WithUploader(uploader s3manageriface.UploaderAPI) Option {
	return func(r *Runner) {
		r.uploader = uploader
	}
}

func WithBucket(bucket string) Option {
	return func(r *Runner) {
		r.bucket = bucket
	}
}

func WithPrefix(prefix string) Option {
	return func(r *Runner) {
		r.prefix = prefix
	}
}

func WithAccount(account string) Option {
	return func(r *Runner) {
		r.account = account
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func New(opts ...Option) (*Runner, error) {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if err := validateDeps(r); err != nil {
		return nil, err
	}
	return r, nil
}

func validateDeps(r *Runner) error {
	if r.repo == nil {
		return errors.New("backup requires a filters set repository")
	}
	if r.uploader == nil {
		return errors.New("backup requires an uploader")
	}
	if strings.TrimSpace(r.bucket) == "" {
		return errors.New("backup requires a bucket")
	}
	if strings.TrimSpace(r.account) == "" {
		return errors.New("backup requires an account")
	}
	if r.logger == nil {
		return errors.New("backup requires a logger")
	}
	return nil
}

// Key returns the object key of a script.
func Key(prefix string, account string, name string) string {
	return path.Join(prefix, account, name+ScriptExtension)
}

// Run uploads every script and stops at the first failure.
func (r *Runner) Run(ctx context.Context) ([]Object, error) {
	scripts, err := r.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing filters sets")
	}

	objects := make([]Object, 0, len(scripts))
	for _, script := range scripts {
		content, err := r.repo.LoadRaw(ctx, script.Name)
		if err != nil {
			return objects, errors.Wrapf(err, "reading %s", script.Name)
		}

		key := Key(r.prefix, r.account, script.Name)
		_, err = r.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(r.bucket),
			Key:         aws.String(key),
			Body:        strings.NewReader(content),
			ContentType: aws.String(ContentType),
			Metadata: map[string]*string{
				MetadataActive: aws.String(strconv.FormatBool(script.Active)),
			},
		})
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to upload script",
				slog.String("key", key),
				slog.Any("error", utils.WrapError(err)))
			return objects, errors.Wrapf(err, "uploading %s", key)
		}

		r.logger.InfoContext(ctx, "Script uploaded",
			slog.String("bucket", r.bucket),
			slog.String("key", key),
			slog.Bool("active", script.Active))
		objects = append(objects, Object{Key: key, Active: script.Active, Size: len(content)})
	}
	return objects, nil
}

// NewUploader builds an s3manager uploader for the configured storage.
func NewUploader(env config.S3Env, forcePathStyle bool) (s3manageriface.UploaderAPI, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(env.Region),
		Credentials:      credentials.NewStaticCredentials(env.Key, env.Secret, ""),
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	}
	if env.Endpoint != "" {
		awsCfg.Endpoint = aws.String(env.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating S3 session")
	}
	return s3manager.NewUploader(sess), nil
}
