package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyToken              = "token"
	KeyShopperID          = "shopperId"
	KeyProductID          = "productId"
	KeyQuantity           = "quantity"
	KeyMergedQuantity     = "mergedQuantity"
	KeyCartLines          = "cartLines"
	KeyWishlistEntries    = "wishlistEntries"
	KeyCurrencyCode       = "currencyCode"
	KeyStorageKey         = "storageKey"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
)
