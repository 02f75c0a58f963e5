package dynamo

// DynamoDB attribute names used in key and update expressions across all repos.
const (
	fieldUserID           = "user_id"
	fieldUsername         = "username"
	fieldEmail            = "email"
	fieldPhone            = "phone"
	fieldTokenID          = "token_id"
	fieldMomentID         = "moment_id"
	fieldCommentID        = "comment_id"
	fieldStorageID        = "storage_id"
	fieldFeed             = "feed"
	fieldSortKey          = "sort_key"
	fieldUpdatedAt        = "updated_at"
	fieldAttempts         = "attempts"
	fieldExpiresAt        = "expires_at"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)

// Index names.
const (
	indexUsername      = "username-index"
	indexEmail         = "email-index"
	indexPhone         = "phone-index"
	indexRefreshToken  = "refresh_token-index"
	indexUserCreated   = "user_id-sort_key-index"
	indexFeedCreated   = "feed-sort_key-index"
	indexMomentCreated = "moment_id-sort_key-index"
)

// feedPartition is the constant value of the moments "feed" attribute.
const feedPartition = "moment"
