package api

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-cache"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// formOverhead is the slack allowed for multipart headers and text fields on
// top of the file size limits.
const formOverhead = 1 << 20

const loginPath = "/api/v1/auth/login"
