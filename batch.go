package main

// maxIDsPerQuery ограничивает размер пачки идентификаторов в одном запросе
// к ClickHouse, иначе строка запроса разрастается и ловит таймауты
const maxIDsPerQuery = 10000

// chunkIDs режет список идентификаторов на последовательные пачки не больше n,
// порядок сохраняется, вход покрывается ровно один раз
func chunkIDs(ids []string, n int) [][]string {
	if n <= 0 || len(ids) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(ids)+n-1)/n)
	for i := 0; i < len(ids); i += n {
		end := i + n
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
