package ordkv

import "sync"

var keyBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 512)
	},
}

func borrowKeyBytes() []byte {
	return keyBytesPool.Get().([]byte)
}

func releaseKeyBytes(b []byte) {
	keyBytesPool.Put(b[:0])
}

var valueBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

func borrowValueBytes() []byte {
	return valueBytesPool.Get().([]byte)
}

func releaseValueBytes(b []byte) {
	valueBytesPool.Put(b[:0])
}
