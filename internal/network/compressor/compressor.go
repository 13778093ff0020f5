package compressor

// Compressor 抽象了“单次压缩/解压”能力，面向网络报文而不是流式场景。
type Compressor interface {
	// Compress 将 src 压缩到 dst。
	//
	// dst 可以传入一个可复用的缓冲区（长度可为 0），实现可选择复用其底层容量。
	Compress(dst, src []byte) (packet []byte, err error)

	// Decompress 将 Compress 的输出 src 解压到 dst。
	Decompress(dst, src []byte) (plain []byte, err error)
}

// NopCompressor 不做任何压缩/解压，直接返回输入内容。
type NopCompressor struct{}

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

var _ Compressor = NopCompressor{}
