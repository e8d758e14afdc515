package buffer

// DefaultRecvBufferCount 容量是单次读取大小的多少倍，留出足够的余量减少搬移次数
const DefaultRecvBufferCount = 10

// RecvBuffer 每个session独占的滑动窗口接收缓冲
//
//	[0, readPos)        已经消费
//	[readPos, writePos) 已收到未处理
//	[writePos, cap)     空闲
//
// 只在所属session的读完成回调里修改，非goroutine safe
type RecvBuffer struct {
	buf      []byte
	unitSize int
	readPos  int
	writePos int
}

func NewRecvBuffer(unitSize int) *RecvBuffer {
	return NewRecvBufferN(unitSize, DefaultRecvBufferCount)
}

// NewRecvBufferN count至少为2，否则窗口没有余量可用
func NewRecvBufferN(unitSize, count int) *RecvBuffer {
	if unitSize <= 0 {
		panic("buffer: recv unit size must be positive")
	}
	if count < 2 {
		count = 2
	}
	return &RecvBuffer{
		buf:      make([]byte, unitSize*count),
		unitSize: unitSize,
	}
}

// Clean 没有未处理的数据时直接归零
// 否则只有在尾部空间不够下一次读取时才把未处理的数据搬到头部
func (r *RecvBuffer) Clean() {
	dataSize := r.DataSize()
	if dataSize == 0 {
		r.readPos, r.writePos = 0, 0
		return
	}
	if r.FreeSize() < r.unitSize {
		copy(r.buf, r.buf[r.readPos:r.writePos])
		r.readPos = 0
		r.writePos = dataSize
	}
}

// OnRead 消费n个字节
func (r *RecvBuffer) OnRead(n int) bool {
	if n < 0 || n > r.DataSize() {
		return false
	}
	r.readPos += n
	return true
}

// OnWrite 标记有n个字节写入了WriteSlice
func (r *RecvBuffer) OnWrite(n int) bool {
	if n < 0 || n > r.FreeSize() {
		return false
	}
	r.writePos += n
	return true
}

// ReadSlice 未处理的数据，下次Clean之前有效
func (r *RecvBuffer) ReadSlice() []byte {
	return r.buf[r.readPos:r.writePos]
}

// WriteSlice 可以写入的空闲区域
func (r *RecvBuffer) WriteSlice() []byte {
	return r.buf[r.writePos:]
}

func (r *RecvBuffer) ReadPos() int {
	return r.readPos
}

func (r *RecvBuffer) WritePos() int {
	return r.writePos
}

func (r *RecvBuffer) DataSize() int {
	return r.writePos - r.readPos
}

func (r *RecvBuffer) FreeSize() int {
	return len(r.buf) - r.writePos
}

func (r *RecvBuffer) Capacity() int {
	return len(r.buf)
}

func (r *RecvBuffer) UnitSize() int {
	return r.unitSize
}
