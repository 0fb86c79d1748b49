package objectstore

var EncodeHeaderValue = encodeHeaderValue
