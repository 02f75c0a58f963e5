package s3infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// SignOptions describes the request a signed URL authorises.
type SignOptions struct {
	Method    string // http.MethodPut or http.MethodGet
	Headers   http.Header
	Query     url.Values
	ExpiresIn time.Duration
}

// Store signs object URLs for a single bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// NewClient builds an S3 client from awsCfg. A non-empty endpoint (LocalStack)
// replaces the regional one and switches to path-style addressing.
func NewClient(awsCfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// NewStore creates a Store with the given S3 client and bucket name.
func NewStore(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Headers bound through typed PutObject fields rather than injected raw.
var putInputHeaders = map[string]bool{
	"Content-Md5":    true,
	"Content-Type":   true,
	"Content-Length": true,
}

// SignURL returns a presigned URL for key. For PUT the Content-MD5,
// Content-Type and Content-Length headers are signed so the upload must carry
// exactly those values. SigV4 never signs a zero Content-Length; an empty
// upload is instead pinned by the Content-MD5 of the empty body. Any other
// headers and query parameters are added to the request before signing.
func (s *Store) SignURL(ctx context.Context, key string, opts SignOptions) (string, error) {
	if opts.ExpiresIn <= 0 {
		return "", errors.New("sign url: expiry must be positive")
	}
	presigner := s3.NewPresignClient(s.client)

	var extra http.Header
	if opts.Method == http.MethodPut {
		extra = make(http.Header)
		for k, vs := range opts.Headers {
			if !putInputHeaders[http.CanonicalHeaderKey(k)] {
				extra[k] = vs
			}
		}
	} else {
		extra = opts.Headers
	}
	presignOpts := []func(*s3.PresignOptions){
		s3.WithPresignExpires(opts.ExpiresIn),
	}
	if len(extra) > 0 || len(opts.Query) > 0 {
		presignOpts = append(presignOpts, s3.WithPresignClientFromClientOptions(
			func(o *s3.Options) {
				o.APIOptions = append(o.APIOptions, withRequestOverrides(extra, opts.Query))
			},
		))
	}

	switch opts.Method {
	case http.MethodPut:
		presignOpts = append(presignOpts, s3.WithPresignClientFromClientOptions(
			func(o *s3.Options) {
				o.APIOptions = append(o.APIOptions, withSignedHeaders(opts.Headers))
			},
		))
		input := &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}
		if v := opts.Headers.Get("Content-MD5"); v != "" {
			input.ContentMD5 = aws.String(v)
		}
		if v := opts.Headers.Get("Content-Type"); v != "" {
			input.ContentType = aws.String(v)
		}
		if v := opts.Headers.Get("Content-Length"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return "", fmt.Errorf("sign url: invalid Content-Length %q: %w", v, err)
			}
			input.ContentLength = aws.Int64(n)
		}
		req, err := presigner.PresignPutObject(ctx, input, presignOpts...)
		if err != nil {
			return "", fmt.Errorf("presign put object: %w", err)
		}
		return req.URL, nil
	case http.MethodGet:
		req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, presignOpts...)
		if err != nil {
			return "", fmt.Errorf("presign get object: %w", err)
		}
		return req.URL, nil
	default:
		return "", fmt.Errorf("sign url: unsupported method %q", opts.Method)
	}
}

// withSignedHeaders re-asserts Content-MD5 and Content-Type at the start of
// Finalize, after serialization may have dropped them for an empty body and
// before the presigner computes the signature.
func withSignedHeaders(headers http.Header) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Finalize.Add(middleware.FinalizeMiddlewareFunc("socfonySignedHeaders",
			func(ctx context.Context, in middleware.FinalizeInput, next middleware.FinalizeHandler) (middleware.FinalizeOutput, middleware.Metadata, error) {
				req, ok := in.Request.(*smithyhttp.Request)
				if !ok {
					return middleware.FinalizeOutput{}, middleware.Metadata{}, fmt.Errorf("unexpected request type %T", in.Request)
				}
				for _, k := range []string{"Content-MD5", "Content-Type"} {
					if v := headers.Get(k); v != "" {
						req.Header.Set(k, v)
					}
				}
				return next.HandleFinalize(ctx, in)
			},
		), middleware.Before)
	}
}

// withRequestOverrides sets headers and query parameters on the outgoing
// request in the Build step, ahead of presigning in Finalize.
func withRequestOverrides(headers http.Header, query url.Values) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("socfonyRequestOverrides",
			func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (middleware.BuildOutput, middleware.Metadata, error) {
				req, ok := in.Request.(*smithyhttp.Request)
				if !ok {
					return middleware.BuildOutput{}, middleware.Metadata{}, fmt.Errorf("unexpected request type %T", in.Request)
				}
				for k, vs := range headers {
					for _, v := range vs {
						req.Header.Add(k, v)
					}
				}
				if len(query) > 0 {
					q := req.URL.Query()
					for k, vs := range query {
						for _, v := range vs {
							q.Add(k, v)
						}
					}
					req.URL.RawQuery = q.Encode()
				}
				return next.HandleBuild(ctx, in)
			},
		), middleware.After)
	}
}
