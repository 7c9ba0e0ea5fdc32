package monarco

// crcTable is the lookup table of the reflected 0xA001 polynomial.
var crcTable = makeCRCTable()

func makeCRCTable() (table [256]uint16) {
	for n := range table {
		crc := uint16(n)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0xA001
			} else {
				crc >>= 1
			}
		}
		table[n] = crc
	}
	return
}

// CRC16 computes CRC-16/MODBUS (init 0xFFFF, no final xor) over data.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc>>8 ^ crcTable[byte(crc)^b]
	}
	return crc
}
