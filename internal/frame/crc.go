package frame

// CRC8 computes the Dallas/Maxim 1-Wire CRC-8 of data: polynomial
// x^8+x^5+x^4+1 in reflected form (0x8C), initial value 0, no final XOR.
// It is computed bit by bit so both nodes need no lookup table.
func CRC8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x01 != 0 {
				crc = (crc >> 1) ^ 0x8C
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
